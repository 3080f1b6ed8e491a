package gsx

import (
	"errors"
	"fmt"
)

// Error — ошибка, возвращённая внешней системой вместе с её кодом.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("GSX %s: %s", e.Code, e.Message)
}

// Коды, при которых закрытие ремонта считается выполненным: внешняя система
// отвечает ошибкой, но ремонт у неё уже в конечном состоянии.
var toleratedOnClose = map[string]struct{}{
	"ACT.BIN.01":  {},
	"RPR.LKP.01":  {},
	"RPR.LKP.010": {},
	"RPR.COM.030": {},
	"RPR.COM.036": {},
	"RPR.COM.019": {},
	"RPR.LKP.16":  {},
	"RPR.COM.136": {},
	"ENT.UPL.022": {},
}

// IsToleratedOnClose сообщает, можно ли считать ремонт закрытым,
// несмотря на ошибку внешней системы.
func IsToleratedOnClose(err error) bool {
	var gsxErr *Error
	if !errors.As(err, &gsxErr) {
		return false
	}
	_, ok := toleratedOnClose[gsxErr.Code]
	return ok
}
