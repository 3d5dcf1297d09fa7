package orderflow

import (
	"fmt"
	"math/rand"
	"time"
)

// NumberSource yields the random suffix of an order number.
type NumberSource func() int

// RandomSuffix draws a suffix in [0, 10000).
func RandomSuffix() int {
	return rand.Intn(10000)
}

// OrderNumber formats ORD{yy}{mm}{dd}{nnnn}. Uniqueness is enforced by the
// database; callers regenerate on conflict.
func OrderNumber(t time.Time, next NumberSource) string {
	return fmt.Sprintf("ORD%s%04d", t.Format("060102"), next()%10000)
}
