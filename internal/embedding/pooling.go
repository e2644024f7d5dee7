package embedding

// Pool reduces a [seq, dims] hidden-state matrix (row-major) to one vector.
// Mean pooling only averages positions whose attention mask is set.
func Pool(hidden []float32, attentionMask []int64, dims int, pooling Pooling) []float32 {
	out := make([]float32, dims)
	if pooling == PoolingCLS {
		copy(out, hidden[:dims])
		return out
	}
	var count float32
	for pos, mask := range attentionMask {
		if mask == 0 {
			continue
		}
		row := hidden[pos*dims : (pos+1)*dims]
		for i, v := range row {
			out[i] += v
		}
		count++
	}
	if count > 0 {
		for i := range out {
			out[i] /= count
		}
	}
	return out
}
