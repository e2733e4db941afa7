package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entschema "entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	tableDocuments   = "documents"
	tableProgression = "progression_events"
	tableXP          = "xp_events"
	tableLLM         = "llm_request_events"
	tableSequence    = "ledger_sequence"
)

func idColumn() *entschema.Column {
	return &entschema.Column{Name: "id", Type: field.TypeInt, Increment: true}
}

// eventColumns are shared by every ledger table: a global sequence and a
// wall-clock timestamp.
func eventColumns(t *entschema.Table) *entschema.Table {
	return t.
		AddColumn(&entschema.Column{Name: "sequence", Type: field.TypeInt64, Unique: true}).
		AddColumn(&entschema.Column{Name: "timestamp", Type: field.TypeTime})
}

func str(name string) *entschema.Column {
	return &entschema.Column{Name: name, Type: field.TypeString, Default: ""}
}

func num(name string) *entschema.Column {
	return &entschema.Column{Name: name, Type: field.TypeInt, Default: 0}
}

// tables declares the database layout.
func tables() []*entschema.Table {
	documents := entschema.NewTable(tableDocuments).
		AddPrimary(idColumn()).
		AddColumn(&entschema.Column{Name: "doc_key", Type: field.TypeString}).
		AddColumn(&entschema.Column{Name: "path", Type: field.TypeString}).
		AddColumn(&entschema.Column{Name: "value", Type: field.TypeString, Size: 1 << 20}).
		AddColumn(&entschema.Column{Name: "updated_at", Type: field.TypeTime})
	documents.AddIndex("documents_doc_key_path", true, []string{"doc_key", "path"})

	progression := eventColumns(entschema.NewTable(tableProgression).AddPrimary(idColumn())).
		AddColumn(str("learner_id")).
		AddColumn(str("module_id")).
		AddColumn(str("submodule_id")).
		AddColumn(str("kind")).
		AddColumn(num("score")).
		AddColumn(num("xp")).
		AddColumn(&entschema.Column{Name: "module_completed", Type: field.TypeBool, Default: false})
	progression.AddIndex("progression_events_learner_id", false, []string{"learner_id"})

	xp := eventColumns(entschema.NewTable(tableXP).AddPrimary(idColumn())).
		AddColumn(str("learner_id")).
		AddColumn(str("kind")).
		AddColumn(num("amount")).
		AddColumn(str("module_id")).
		AddColumn(str("submodule_id")).
		AddColumn(str("reason")).
		AddColumn(&entschema.Column{Name: "award_key", Type: field.TypeString, Unique: true})
	xp.AddIndex("xp_events_learner_id", false, []string{"learner_id"})

	llm := eventColumns(entschema.NewTable(tableLLM).AddPrimary(idColumn())).
		AddColumn(str("provider")).
		AddColumn(str("model")).
		AddColumn(str("purpose")).
		AddColumn(num("input_tokens")).
		AddColumn(num("output_tokens")).
		AddColumn(&entschema.Column{Name: "latency_ms", Type: field.TypeInt64, Default: 0}).
		AddColumn(&entschema.Column{Name: "success", Type: field.TypeBool, Default: false}).
		AddColumn(str("error_message")).
		AddColumn(&entschema.Column{Name: "request_body", Type: field.TypeString, Size: 1 << 20, Default: ""}).
		AddColumn(&entschema.Column{Name: "response_body", Type: field.TypeString, Size: 1 << 20, Default: ""})

	seq := entschema.NewTable(tableSequence).
		AddPrimary(&entschema.Column{Name: "id", Type: field.TypeInt}).
		AddColumn(&entschema.Column{Name: "last", Type: field.TypeInt64, Default: 0})

	return []*entschema.Table{documents, progression, xp, llm, seq}
}

// migrate creates or upgrades the tables using ent's migration engine.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := entschema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Create(ctx, tables()...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
