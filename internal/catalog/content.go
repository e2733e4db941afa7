package catalog

// BlockKind identifies how a content block is rendered.
type BlockKind string

const (
	BlockText    BlockKind = "text"
	BlockList    BlockKind = "list"
	BlockTable   BlockKind = "table"
	BlockQuote   BlockKind = "quote"
	BlockExample BlockKind = "example"
	BlockCallout BlockKind = "callout"
	BlockLink    BlockKind = "link"
	BlockUnknown BlockKind = ""
)

// Content is the ordered list of sections making up a lesson.
type Content []Section

// Section is a headed group of blocks.
type Section struct {
	Heading string  `yaml:"heading" json:"heading"`
	Blocks  []Block `yaml:"blocks" json:"blocks"`
}

// Block is one typed unit of lesson content. Exactly one field is set;
// Kind reports which.
type Block struct {
	Text    string   `yaml:"text,omitempty" json:"text,omitempty"`
	List    []string `yaml:"list,omitempty" json:"list,omitempty"`
	Table   *Table   `yaml:"table,omitempty" json:"table,omitempty"`
	Quote   string   `yaml:"quote,omitempty" json:"quote,omitempty"`
	Example string   `yaml:"example,omitempty" json:"example,omitempty"`
	Callout string   `yaml:"callout,omitempty" json:"callout,omitempty"`
	Link    *Link    `yaml:"link,omitempty" json:"link,omitempty"`
}

// Table is a simple header plus rows grid.
type Table struct {
	Header []string   `yaml:"header" json:"header"`
	Rows   [][]string `yaml:"rows" json:"rows"`
}

// Link points at external reading.
type Link struct {
	URL     string `yaml:"url" json:"url"`
	Caption string `yaml:"caption,omitempty" json:"caption,omitempty"`
}

// Kind returns the block's kind.
func (b Block) Kind() BlockKind {
	switch {
	case b.Text != "":
		return BlockText
	case len(b.List) > 0:
		return BlockList
	case b.Table != nil:
		return BlockTable
	case b.Quote != "":
		return BlockQuote
	case b.Example != "":
		return BlockExample
	case b.Callout != "":
		return BlockCallout
	case b.Link != nil:
		return BlockLink
	default:
		return BlockUnknown
	}
}

// WordCount approximates the reading length of the content.
func (c Content) WordCount() int {
	n := 0
	for _, s := range c {
		n += words(s.Heading)
		for _, b := range s.Blocks {
			n += words(b.Text) + words(b.Quote) + words(b.Example) + words(b.Callout)
			for _, item := range b.List {
				n += words(item)
			}
		}
	}
	return n
}

func words(s string) int {
	n := 0
	inWord := false
	for _, r := range s {
		space := r == ' ' || r == '\n' || r == '\t'
		if !space && !inWord {
			n++
		}
		inWord = !space
	}
	return n
}
