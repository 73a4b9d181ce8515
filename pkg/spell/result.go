package spell

// Result is the answer to one spelling query. Words groups the spellable
// words into buckets keyed by score (scoring variant) or by word length;
// each bucket keeps Discover's ordering.
type Result struct {
	Word  string           `json:"word" msgpack:"word"`
	Words map[int][]string `json:"words" msgpack:"words"`
}

// Count returns the number of words across all buckets.
func (r *Result) Count() int {
	n := 0
	for _, words := range r.Words {
		n += len(words)
	}
	return n
}

// Group buckets ordered matches by value when scoring, by length otherwise.
func Group(matches []Match, scoring bool) map[int][]string {
	buckets := make(map[int][]string)
	for _, m := range matches {
		key := len(m.Word)
		if scoring {
			key = m.Value
		}
		buckets[key] = append(buckets[key], m.Word)
	}
	return buckets
}
