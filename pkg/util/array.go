package util

// ArrayReverse reverses the given byte slice in place and returns it.
func ArrayReverse(arr []byte) []byte {
	if len(arr) < 2 {
		return arr
	}
	for i := len(arr)/2 - 1; i >= 0; i-- {
		opp := len(arr) - 1 - i
		arr[i], arr[opp] = arr[opp], arr[i]
	}
	return arr
}

// ReversedCopy returns a reversed copy of arr leaving arr intact.
func ReversedCopy(arr []byte) []byte {
	res := make([]byte, len(arr))
	copy(res, arr)
	return ArrayReverse(res)
}
