package domain

import "errors"

// ErrNotFound возвращается репозиториями при отсутствии записи.
var ErrNotFound = errors.New("record not found")

// ErrPushTokenInvalid сообщает, что провайдер отклонил push-токен как недействительный.
var ErrPushTokenInvalid = errors.New("push token is invalid")
