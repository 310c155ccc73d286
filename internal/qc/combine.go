package qc

import (
	"strings"

	"tally/internal/layout"
	"tally/internal/ledger"
)

// Column subsets carried into the combined record, in output order. The merge
// keys lead each subset and are shared across modalities.
var (
	combineKeys = []string{"study", "patient", "interview_type", "day", "interview_number"}

	audioKeep = []string{"length_minutes", "overall_db", "amplitude_stdev", "mean_flatness"}
	videoKeep = []string{
		"minimum_faces_detected_in_frame", "maximum_faces_detected_in_frame",
		"mean_faces_detected_in_frame", "mean_face_confidence_score", "mean_face_area",
	}
	transcriptKeep = []string{
		"num_redacted", "num_inaudible", "num_subjects",
		"num_turns_S1", "num_words_S1", "num_turns_S2", "num_words_S2",
		"num_turns_S3", "num_words_S3",
		"final_timestamp_minutes", "min_timestamp_space_per_word", "max_timestamp_space_per_word",
	}
)

// Combine outer-merges the three QC exports on (study, patient,
// interview_type, day, interview_number) and writes the per-participant
// combined record, overwritten in full. Reports whether a record was written;
// nothing is written when neither audio nor video QC exists yet.
func Combine(tree layout.Tree, participant, interviewType string) (bool, error) {
	tables, err := Load(tree, participant, interviewType)
	if err != nil {
		return false, err
	}
	if tables.Audio == nil && tables.Video == nil {
		return false, nil
	}

	columns := append(append([]string{}, combineKeys...), audioKeep...)
	columns = append(columns, videoKeep...)
	columns = append(columns, transcriptKeep...)

	merged := make(map[string]map[string]string)
	var order []string
	absorb := func(table *Table, keep []string) {
		if table == nil {
			return
		}
		for _, record := range table.Records {
			key := mergeKey(record, interviewType)
			row, ok := merged[key]
			if !ok {
				row = make(map[string]string, len(columns))
				for _, name := range combineKeys {
					row[name] = record[name]
				}
				row["interview_type"] = interviewType
				merged[key] = row
				order = append(order, key)
			}
			for _, name := range keep {
				row[name] = record[name]
			}
		}
	}
	absorb(tables.Audio, audioKeep)
	absorb(tables.Video, videoKeep)
	absorb(tables.Transcript, transcriptKeep)

	records := make([][]string, 0, len(order))
	for _, key := range order {
		row := merged[key]
		record := make([]string, len(columns))
		empty := true
		for i, name := range columns {
			record[i] = row[name]
			if record[i] != "" {
				empty = false
			}
		}
		if !empty {
			records = append(records, record)
		}
	}

	path := tree.CombinedQCPath(participant, interviewType)
	if err := ledger.WriteTable(path, columns, records); err != nil {
		return false, err
	}
	return true, nil
}

func mergeKey(record map[string]string, interviewType string) string {
	return strings.Join([]string{
		record["study"], record["patient"], interviewType,
		record["day"], record["interview_number"],
	}, "\x1f")
}
