package store

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// buildFilter translates a Query into a Mongo filter document. The filter is
// the conjunction of owner, date range, type, and search term criteria.
func buildFilter(q Query, now time.Time) bson.M {
	filter := bson.M{"user_id": q.UserID}

	if start, ok := dateRangeStart(q.DateRange, now); ok {
		filter["createdAt"] = bson.M{"$gte": start}
	}

	if q.Type != "" && q.Type != "all" {
		filter["type"] = q.Type
	}

	if q.SearchTerm != "" {
		// Substring match, not a user-supplied pattern.
		pattern := regexp.QuoteMeta(q.SearchTerm)
		regex := bson.M{"$regex": pattern, "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"title": regex},
			bson.M{"preview": regex},
			bson.M{"messages.content": regex},
		}
	}

	return filter
}

// dateRangeStart returns the inclusive lower bound for createdAt. "today"
// means since local midnight; the other ranges subtract calendar units from
// now. Unknown ranges (including "all" and "") apply no bound.
func dateRangeStart(rng string, now time.Time) (time.Time, bool) {
	switch rng {
	case "today":
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), true
	case "week":
		return now.AddDate(0, 0, -7), true
	case "month":
		return now.AddDate(0, -1, 0), true
	case "quarter":
		return now.AddDate(0, -3, 0), true
	case "year":
		return now.AddDate(-1, 0, 0), true
	default:
		return time.Time{}, false
	}
}

// buildSort maps a sort key to a Mongo sort document. Unknown keys fall back
// to newest-first.
func buildSort(sortBy string) bson.D {
	switch sortBy {
	case "oldest":
		return bson.D{{Key: "createdAt", Value: 1}}
	case "duration":
		return bson.D{{Key: "duration", Value: -1}}
	case "messages":
		return bson.D{{Key: "messageCount", Value: -1}}
	default: // newest
		return bson.D{{Key: "createdAt", Value: -1}}
	}
}
