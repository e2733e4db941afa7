package progress

import (
	"strings"
	"time"

	"github.com/abhisek/ladder/internal/progression"
	"github.com/abhisek/ladder/internal/store"
)

// Document layout, one dotted path per field:
//
//	xp
//	modules.<module>.unlocked
//	modules.<module>.completed
//	submodules.<module>.<sub>.unlocked
//	submodules.<module>.<sub>.completed
//	submodules.<module>.<sub>.quizCompleted
//	submodules.<module>.<sub>.score
//	submodules.<module>.<sub>.correct
//	submodules.<module>.<sub>.total
//	submodules.<module>.<sub>.bypassed
//	submodules.<module>.<sub>.completedAt
const (
	pathXP         = "xp"
	prefixModule   = "modules."
	prefixSub      = "submodules."
	fieldUnlocked  = "unlocked"
	fieldCompleted = "completed"
	fieldQuizDone  = "quizCompleted"
	fieldScore     = "score"
	fieldCorrect   = "correct"
	fieldTotal     = "total"
	fieldBypassed  = "bypassed"
	fieldDoneAt    = "completedAt"
)

func modulePath(moduleID, field string) string {
	return prefixModule + moduleID + "." + field
}

func subPath(ref progression.Ref, field string) string {
	return prefixSub + ref.ModuleID + "." + ref.SubModuleID + "." + field
}

// EncodeChange turns a transition's changes into a merge patch. Only set
// flags are written, so a patch can never clear progress already stored.
func EncodeChange(ch progression.Change) store.Document {
	doc := make(store.Document)
	for id, m := range ch.Modules {
		encodeModule(doc, id, m)
	}
	for ref, p := range ch.SubModules {
		encodeSubModule(doc, ref, p)
	}
	return doc
}

// EncodeAccount turns a whole account into a document.
func EncodeAccount(a progression.Account) store.Document {
	doc := EncodeChange(progression.Change{SubModules: a.SubModules, Modules: a.Modules})
	doc[pathXP] = a.XP
	return doc
}

func encodeModule(doc store.Document, id string, m progression.ModuleProgress) {
	if m.Unlocked {
		doc[modulePath(id, fieldUnlocked)] = true
	}
	if m.Completed {
		doc[modulePath(id, fieldCompleted)] = true
	}
}

func encodeSubModule(doc store.Document, ref progression.Ref, p progression.SubModuleProgress) {
	flags := []struct {
		field string
		set   bool
	}{
		{fieldUnlocked, p.Unlocked},
		{fieldCompleted, p.Completed},
		{fieldQuizDone, p.QuizCompleted},
		{fieldBypassed, p.Bypassed},
	}
	for _, f := range flags {
		if f.set {
			doc[subPath(ref, f.field)] = true
		}
	}
	if p.Scored {
		doc[subPath(ref, fieldScore)] = p.Score
		doc[subPath(ref, fieldCorrect)] = p.Correct
		doc[subPath(ref, fieldTotal)] = p.Total
	}
	if !p.CompletedAt.IsZero() {
		doc[subPath(ref, fieldDoneAt)] = p.CompletedAt.UTC().Format(time.RFC3339)
	}
}

// DecodeAccount rebuilds an account from a stored document. Unknown paths
// are ignored.
func DecodeAccount(doc store.Document) progression.Account {
	a := progression.NewAccount()
	for path, v := range doc {
		switch {
		case path == pathXP:
			a.XP = int(doc.Int(path))
		case strings.HasPrefix(path, prefixModule):
			parts := strings.Split(strings.TrimPrefix(path, prefixModule), ".")
			if len(parts) != 2 {
				continue
			}
			m := a.Modules[parts[0]]
			switch parts[1] {
			case fieldUnlocked:
				m.Unlocked = asBool(v)
			case fieldCompleted:
				m.Completed = asBool(v)
			default:
				continue
			}
			a.Modules[parts[0]] = m
		case strings.HasPrefix(path, prefixSub):
			parts := strings.Split(strings.TrimPrefix(path, prefixSub), ".")
			if len(parts) != 3 {
				continue
			}
			ref := progression.Ref{ModuleID: parts[0], SubModuleID: parts[1]}
			p := a.SubModules[ref]
			if !decodeSubField(&p, parts[2], doc, path, v) {
				continue
			}
			a.SubModules[ref] = p
		}
	}
	return a
}

func decodeSubField(p *progression.SubModuleProgress, field string, doc store.Document, path string, v any) bool {
	switch field {
	case fieldUnlocked:
		p.Unlocked = asBool(v)
	case fieldCompleted:
		p.Completed = asBool(v)
	case fieldQuizDone:
		p.QuizCompleted = asBool(v)
	case fieldBypassed:
		p.Bypassed = asBool(v)
	case fieldScore:
		p.Score, p.Scored = int(doc.Int(path)), true
	case fieldCorrect:
		p.Correct = int(doc.Int(path))
	case fieldTotal:
		p.Total = int(doc.Int(path))
	case fieldDoneAt:
		s, _ := v.(string)
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return false
		}
		p.CompletedAt = t
	default:
		return false
	}
	return true
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// guardScores drops score paths from patch where remote already holds a
// better score for the same sub-module.
func guardScores(remote, patch store.Document) {
	for path := range patch {
		if !strings.HasPrefix(path, prefixSub) || !strings.HasSuffix(path, "."+fieldScore) {
			continue
		}
		if _, ok := remote[path]; !ok || remote.Int(path) <= patch.Int(path) {
			continue
		}
		base := strings.TrimSuffix(path, fieldScore)
		delete(patch, path)
		delete(patch, base+fieldCorrect)
		delete(patch, base+fieldTotal)
	}
}
