package renderer

// LIS returns the positions of a longest strictly increasing subsequence of
// arr, ignoring zero entries. Positions are ascending.
//
// The result is the patience-sort reconstruction: each value replaces the
// first tail that is not smaller than it, and the subsequence is recovered by
// walking parent pointers back from the last tail.
func LIS(arr []int) []int {
	parent := make([]int, len(arr))
	result := make([]int, 0, len(arr))
	for i, v := range arr {
		if v == 0 {
			continue
		}
		if n := len(result); n == 0 || arr[result[n-1]] < v {
			if n > 0 {
				parent[i] = result[n-1]
			}
			result = append(result, i)
			continue
		}
		lo, hi := 0, len(result)-1
		for lo < hi {
			mid := (lo + hi) >> 1
			if arr[result[mid]] < v {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if v < arr[result[lo]] {
			if lo > 0 {
				parent[i] = result[lo-1]
			}
			result[lo] = i
		}
	}
	n := len(result)
	if n == 0 {
		return result
	}
	last := result[n-1]
	for n > 0 {
		n--
		result[n] = last
		last = parent[last]
	}
	return result
}
