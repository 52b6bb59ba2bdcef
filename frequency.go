package wavecollapse

// FrequencyTable holds the occurrence count of every tile id.
type FrequencyTable []int

// Total returns the sum of all counts.
func (f FrequencyTable) Total() int {
	n := 0
	for _, v := range f {
		n += v
	}
	return n
}

// Probability returns the relative weight of id.
func (f FrequencyTable) Probability(id int) float64 {
	t := f.Total()
	if t == 0 {
		return 0
	}
	return float64(f[id]) / float64(t)
}
