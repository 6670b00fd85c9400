package expr

import (
	"fmt"
	"strconv"
)

func itoa(n int) string { return strconv.Itoa(n) }

var (
	errWrongSlotCount = fmt.Errorf("expr: wrong number of data slots")
	errRegisterIO     = fmt.Errorf("expr: register read/write failed")
)
