// Maybe use package slices instead

package slice

func Map[T any, U any](input []T, pred func(T) U) []U {
	result := make([]U, len(input))
	for i, v := range input {
		result[i] = pred(v)
	}
	return result
}

func GroupBy[T any, K comparable](input []T, key func(T) K) map[K][]T {
	result := make(map[K][]T)
	for _, v := range input {
		k := key(v)
		result[k] = append(result[k], v)
	}
	return result
}
