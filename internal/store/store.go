// Package store define el contrato común de los backends de persistencia.
//
// Las implementaciones viven en los subpaquetes memory, redis y postgres.
// Todas distinguen "no existe" (ErrNotFound) de fallas de infraestructura:
// la capa de protocolo traduce ErrNotFound a errores OAuth2 y deja pasar
// cualquier otro error como server_error.
package store

import "errors"

// ErrNotFound indica que el registro buscado no existe (o ya fue consumido).
var ErrNotFound = errors.New("store: not found")
