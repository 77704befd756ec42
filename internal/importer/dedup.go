package importer

import "strings"

// DedupPartition is the outcome of the deduplication filter.
type DedupPartition struct {
	ToProcess            []string `json:"to_process"`
	DuplicateWithinBatch []string `json:"duplicate_within_batch"`
	AlreadyRegistered    []string `json:"already_registered"`
}

// PartitionURLs splits candidate URLs into work, within-batch duplicates
// and already-registered entries. Matching is exact on the trimmed URL
// string; no canonicalization is applied. A URL that is both a
// within-batch duplicate and already registered is reported once, under
// AlreadyRegistered.
func PartitionURLs(candidates []string, registered []string) DedupPartition {
	registeredSet := make(map[string]bool, len(registered))
	for _, u := range registered {
		registeredSet[strings.TrimSpace(u)] = true
	}

	var p DedupPartition
	seen := make(map[string]bool, len(candidates))
	reported := make(map[string]bool, len(candidates))

	for _, raw := range candidates {
		u := strings.TrimSpace(raw)
		if u == "" {
			continue
		}

		if registeredSet[u] {
			if !reported[u] {
				reported[u] = true
				p.AlreadyRegistered = append(p.AlreadyRegistered, u)
			}
			continue
		}

		if seen[u] {
			if !reported[u] {
				reported[u] = true
				p.DuplicateWithinBatch = append(p.DuplicateWithinBatch, u)
			}
			continue
		}

		seen[u] = true
		p.ToProcess = append(p.ToProcess, u)
	}

	return p
}
