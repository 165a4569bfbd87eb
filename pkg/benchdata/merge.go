package benchdata

// Merge combines one or more parsed dataset batches into a single snapshot
// document. Within and across batches the dedup key is (set, metric, key);
// when two entries collide the later one in processing order wins and the
// superseded dataset is dropped silently. Callers feed batches oldest
// first, so "later wins" is "freshest fetch wins".
//
// The output is canonical: datasets sorted by (set, metric, key). Given
// identical batches in identical order the result is identical, including
// its serialized bytes.
func Merge(source SourceInfo, batches ...[]Dataset) Snapshot {
	byID := make(map[DatasetID]Dataset)
	for _, batch := range batches {
		for _, d := range batch {
			byID[d.ID()] = d
		}
	}

	datasets := make([]Dataset, 0, len(byID))
	for _, d := range byID {
		datasets = append(datasets, d)
	}
	sortDatasets(datasets)

	return Snapshot{Source: source, Datasets: datasets}
}
