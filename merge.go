package obras2pdf

import (
	"sort"

	"go.uber.org/zap"
)

// Merge joins local and remote data on the project identifier.
// One record is returned per local record, in local order. Local values win:
// remote data only fills fields that are unset locally. Remote identifiers
// with no local record are ignored. Payments attach by identifier.
// Inputs are not modified.
func Merge(local *LocalData, remote map[string]RemoteRecord, log *zap.Logger) []ProjectRecord {
	log = loggerOrNop(log)
	if local == nil {
		return nil
	}

	out := make([]ProjectRecord, 0, len(local.Records))
	matched := make(map[string]bool, len(remote))
	for _, rec := range local.Records {
		merged := rec.clone()

		if pays, ok := local.Payments[rec.ID]; ok && len(merged.Payments) == 0 {
			merged.Payments = append([]Payment(nil), pays...)
		}

		if rr, ok := remote[rec.ID]; ok {
			matched[rec.ID] = true
			if merged.RemainingUVI == nil && rr.RemainingUVI != nil {
				merged.RemainingUVI = floatPtr(*rr.RemainingUVI)
			}
			if len(merged.News) == 0 && len(rr.News) > 0 {
				merged.News = append([]NewsItem(nil), rr.News...)
			}
		}
		out = append(out, merged)
	}

	if len(matched) < len(remote) {
		var orphans []string
		for id := range remote {
			if !matched[id] {
				orphans = append(orphans, id)
			}
		}
		sort.Strings(orphans)
		log.Debug("remote identifiers without a local record", zap.Strings("ids", orphans))
	}
	return out
}
