package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"crushboard/internal/feed"
	"crushboard/internal/models"

	"github.com/rs/zerolog/log"
)

func runImport(parent context.Context, path string) error {
	if parent == nil {
		parent = context.Background()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	items, err := decodeExport(raw)
	if err != nil {
		return err
	}

	_, st, err := setup(parent)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.Import(parent, items)
	if err != nil {
		return err
	}
	log.Info().Int("imported", n).Int("skipped", len(items)-n).Str("file", path).Msg("import complete")
	return nil
}

// decodeExport accepts either an array of documents carrying "id" or an object keyed by id.
// Every document goes through the same normalization as live records.
func decodeExport(raw []byte) ([]models.Confession, error) {
	var list []map[string]interface{}
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]models.Confession, 0, len(list))
		for i, doc := range list {
			id, _ := doc["id"].(string)
			if id == "" {
				return nil, fmt.Errorf("document %d has no id", i)
			}
			out = append(out, feed.NormalizeDocument(id, doc))
		}
		return out, nil
	}

	var byID map[string]map[string]interface{}
	if err := json.Unmarshal(raw, &byID); err != nil {
		return nil, fmt.Errorf("unrecognized export format: %w", err)
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]models.Confession, 0, len(ids))
	for _, id := range ids {
		out = append(out, feed.NormalizeDocument(id, byID[id]))
	}
	return out, nil
}
