package archive

import "strings"

// PartitionByMonth regroups the entire archive by each record's month bucket
// so a single month can be served without scanning the whole archive. The
// partition set is rebuilt in full every time; historical records can belong
// to any month, so incremental patching would drift.
func PartitionByMonth(a Archive) map[string]Archive {
	monthly := make(map[string]Archive)

	for bodyName, bucket := range a {
		if bucket == nil {
			continue
		}
		for _, doc := range bucket.Agendas {
			target := partitionBucket(monthly, doc.Month, bodyName)
			target.Agendas = append(target.Agendas, doc)
		}
		for _, doc := range bucket.Minutes {
			target := partitionBucket(monthly, doc.Month, bodyName)
			target.Minutes = append(target.Minutes, doc)
		}
	}

	return monthly
}

func partitionBucket(monthly map[string]Archive, month, bodyName string) *Bucket {
	if month == "" {
		month = "Unknown"
	}
	bodies, exists := monthly[month]
	if !exists {
		bodies = make(Archive)
		monthly[month] = bodies
	}
	bucket, exists := bodies[bodyName]
	if !exists {
		bucket = &Bucket{Agendas: []Document{}, Minutes: []Document{}}
		bodies[bodyName] = bucket
	}
	return bucket
}

// MonthSlug converts a "June 2025" month label into its filename form.
func MonthSlug(month string) string {
	return strings.ToLower(strings.ReplaceAll(month, " ", "_"))
}
