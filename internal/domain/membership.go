package domain

import (
	"slices"
)

// DiffMembership compara o conjunto atual com o desejado e devolve o que precisa
// ser conectado e desconectado. As saídas vêm ordenadas e sem repetição.
func DiffMembership[T ~string](current, desired []T) (added, removed []T) {
	atual := make(map[T]struct{}, len(current))
	for _, id := range current {
		atual[id] = struct{}{}
	}
	desejado := make(map[T]struct{}, len(desired))
	for _, id := range desired {
		desejado[id] = struct{}{}
	}

	for id := range desejado {
		if _, ok := atual[id]; !ok {
			added = append(added, id)
		}
	}
	for id := range atual {
		if _, ok := desejado[id]; !ok {
			removed = append(removed, id)
		}
	}

	slices.Sort(added)
	slices.Sort(removed)
	return added, removed
}

// UniqueIDs remove ids vazios e repetidos preservando a ordem de chegada.
func UniqueIDs[T ~string](ids []T) []T {
	vistos := make(map[T]struct{}, len(ids))
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := vistos[id]; ok {
			continue
		}
		vistos[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
