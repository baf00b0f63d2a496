package model

import "errors"

var (
	// ErrNotFound возвращается, если заказ, товар, категория или пользователь не найдены.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState возвращается при нарушении предусловий операции.
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation возвращается при некорректных входных данных.
	ErrValidation = errors.New("validation error")
	// ErrRender возвращается, если сформированный документ некорректен.
	ErrRender = errors.New("render error")
	// ErrPayloadTooLarge возвращается, если документ превышает допустимый размер.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrStorage возвращается при сбое файлового хранилища.
	ErrStorage = errors.New("storage error")
	// ErrUpstreamQuery возвращается при сбое запроса к базе данных.
	ErrUpstreamQuery = errors.New("upstream query error")
)
