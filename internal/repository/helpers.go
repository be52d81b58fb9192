package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// extractRecordID extracts record ID from SurrealDB result
func extractRecordID(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case models.RecordID:
		return fmt.Sprintf("%s:%v", v.Table, v.ID)
	case *models.RecordID:
		if v != nil {
			return fmt.Sprintf("%s:%v", v.Table, v.ID)
		}
	case map[string]interface{}:
		// Handle {"tb": "table", "id": "xxx"} format
		if tb, ok := v["tb"].(string); ok {
			if id, ok := v["id"].(string); ok {
				return tb + ":" + id
			}
		}
	}
	return ""
}

// recordKey returns the key part of a record id ("table:key" -> "key")
func recordKey(id interface{}) string {
	switch v := id.(type) {
	case models.RecordID:
		return fmt.Sprint(v.ID)
	case *models.RecordID:
		if v != nil {
			return fmt.Sprint(v.ID)
		}
		return ""
	}
	full := extractRecordID(id)
	if _, key, ok := strings.Cut(full, ":"); ok {
		return strings.Trim(key, "`⟨⟩")
	}
	return full
}

// parseTime parses time from various formats
func parseTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
	case models.CustomDateTime:
		return t.Time
	case *models.CustomDateTime:
		if t != nil {
			return t.Time
		}
	}
	return time.Time{}
}

// formatTime renders a time for a <datetime> cast
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// statementRows returns the rows of the i-th statement of a query response
func statementRows(results []interface{}, i int) []map[string]interface{} {
	if i >= len(results) {
		return nil
	}
	resp, ok := results[i].(map[string]interface{})
	if !ok {
		return nil
	}
	items, ok := resp["result"].([]interface{})
	if !ok {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if row, ok := item.(map[string]interface{}); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

// decodeRow converts SurrealDB native values (record ids, datetimes) into
// JSON friendly ones and unmarshals the row into out. The record id is
// replaced by its key, which is the domain id.
func decodeRow(row map[string]interface{}, out interface{}) error {
	if row == nil {
		return errors.New("unexpected result format")
	}
	clean := make(map[string]interface{}, len(row))
	for k, v := range row {
		if k == "id" {
			clean[k] = recordKey(v)
			continue
		}
		clean[k] = normalizeValue(v)
	}

	jsonBytes, err := json.Marshal(clean)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonBytes, out)
}

func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case models.CustomDateTime, *models.CustomDateTime, time.Time:
		parsed := parseTime(t)
		if parsed.IsZero() {
			return nil
		}
		return parsed
	case models.RecordID, *models.RecordID:
		return extractRecordID(t)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, inner := range t {
			out[k] = normalizeValue(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, inner := range t {
			out[i] = normalizeValue(inner)
		}
		return out
	}
	return v
}

// extractCount extracts count from SurrealDB count query result
func extractCount(result interface{}) int {
	if data, ok := result.(map[string]interface{}); ok {
		return extractCountValue(data["count"])
	}
	return 0
}

// extractCountValue converts various numeric types to int
func extractCountValue(v interface{}) int {
	switch c := v.(type) {
	case float64:
		return int(c)
	case float32:
		return int(c)
	case int:
		return c
	case int64:
		return int(c)
	case uint64:
		return int(c)
	}
	return 0
}

// setClause joins SET assignments. Optional fields are appended only when
// present so no NULL is ever written.
func setClause(fields []string) string {
	return strings.Join(fields, ",\n\t\t\t")
}
