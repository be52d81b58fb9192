package database

// Writes that must land together (a progression update plus its ledger
// entries, badge awards and challenge changes) go through AtomicBatch:
//
//	batch := NewAtomicBatch()
//	batch.Add(updateProgression, vars1)
//	batch.Add(createLedgerEntry, vars2)
//	batch.Execute(ctx, db)  // all or nothing
//
// Statements accumulate in memory and are sent as one
// BEGIN TRANSACTION / COMMIT TRANSACTION block. Variables are namespaced per
// statement so two statements may both use $id.

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// TxBuilder builds a transaction block with per-statement variable namespacing
type TxBuilder struct {
	statements []string
	vars       map[string]interface{}
	counter    int
}

// NewTxBuilder creates a new transaction builder
func NewTxBuilder() *TxBuilder {
	return &TxBuilder{
		statements: make([]string, 0),
		vars:       make(map[string]interface{}),
	}
}

// Add appends a statement, renaming each $var to $s<n>_var
func (tb *TxBuilder) Add(query string, vars map[string]interface{}) {
	tb.counter++
	prefix := fmt.Sprintf("s%d_", tb.counter)

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	rewritten := query
	for _, name := range names {
		rewritten = replaceVar(rewritten, name, prefix+name)
		tb.vars[prefix+name] = vars[name]
	}

	tb.statements = append(tb.statements, rewritten)
}

// replaceVar rewrites $name to $renamed where name is not followed by
// another identifier character
func replaceVar(query, name, renamed string) string {
	var sb strings.Builder
	token := "$" + name
	for {
		idx := strings.Index(query, token)
		if idx < 0 {
			sb.WriteString(query)
			return sb.String()
		}
		end := idx + len(token)
		if end < len(query) && isIdentByte(query[end]) {
			sb.WriteString(query[:end])
			query = query[end:]
			continue
		}
		sb.WriteString(query[:idx])
		sb.WriteString("$" + renamed)
		query = query[end:]
	}
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// Build returns the transaction block and the merged variables
func (tb *TxBuilder) Build() (string, map[string]interface{}) {
	if len(tb.statements) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range tb.statements {
		sb.WriteString(strings.TrimSpace(stmt))
		if !strings.HasSuffix(strings.TrimSpace(stmt), ";") {
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")

	return sb.String(), tb.vars
}

// AtomicBatch collects statements that must succeed or fail together
type AtomicBatch struct {
	builder *TxBuilder
	n       int
}

// NewAtomicBatch creates a new atomic batch
func NewAtomicBatch() *AtomicBatch {
	return &AtomicBatch{builder: NewTxBuilder()}
}

// Add adds a statement to the batch
func (ab *AtomicBatch) Add(query string, vars map[string]interface{}) *AtomicBatch {
	ab.builder.Add(query, vars)
	ab.n++
	return ab
}

// Execute runs all statements as a single transaction
func (ab *AtomicBatch) Execute(ctx context.Context, db Database) error {
	query, vars := ab.builder.Build()
	if query == "" {
		return nil
	}
	return db.Execute(ctx, query, vars)
}

// Len returns the number of statements in the batch
func (ab *AtomicBatch) Len() int {
	return ab.n
}
