package models

import "sort"

// NormalizeSet нормализует токены, убирает пустые и дубли, сортирует результат.
func NormalizeSet(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		n := Normalize(item)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Intersects true, если у нормализованных множеств a и b есть общий элемент.
func Intersects(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	index := make(map[string]struct{}, len(b))
	for _, v := range b {
		index[Normalize(v)] = struct{}{}
	}
	for _, v := range a {
		if _, ok := index[Normalize(v)]; ok {
			return true
		}
	}
	return false
}

// Contains true, если множество содержит значение.
func Contains(set []string, value string) bool {
	value = Normalize(value)
	for _, v := range set {
		if Normalize(v) == value {
			return true
		}
	}
	return false
}
