package operator

import (
	"github.com/google/uuid"

	"graphview/core"
)

// Reconcile classifies input records against the existing entities.
//
// Records without an id are given a fresh one. A record whose id is already
// known replaces the raw record in place and is reported as updated; any
// other record is appended to raw and reported as added. A repeated id
// within one batch is reported as updated on its second occurrence.
func Reconcile(input []core.Record, raw *[]core.Record, exists func(id string) bool) (added, updated []string) {
	position := make(map[string]int, len(*raw))
	for i, rec := range *raw {
		position[rec.ID()] = i
	}

	batch := make(map[string]bool, len(input))
	for _, rec := range input {
		id := rec.ID()
		if id == "" {
			id = uuid.NewString()
			rec.SetID(id)
		}

		if exists(id) || batch[id] {
			updated = append(updated, id)
			if i, ok := position[id]; ok {
				(*raw)[i] = rec
			} else {
				position[id] = len(*raw)
				*raw = append(*raw, rec)
			}
			continue
		}

		batch[id] = true
		added = append(added, id)
		position[id] = len(*raw)
		*raw = append(*raw, rec)
	}
	return added, updated
}

func recordIndex(records []core.Record) map[string]core.Record {
	index := make(map[string]core.Record, len(records))
	for _, rec := range records {
		index[rec.ID()] = rec
	}
	return index
}
