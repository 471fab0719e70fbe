package domain

import "errors"

var (
	ErrNotFound           = errors.New("registro nao encontrado")
	ErrDuplicado          = errors.New("registro duplicado")
	ErrReferenciaInvalida = errors.New("referencia para registro inexistente")

	ErrNaoAutenticado = errors.New("voce nao esta logado")
	ErrSemPermissao   = errors.New("acesso restrito a administradores")

	ErrAlreadyVoted = errors.New("voce ja votou")
)
