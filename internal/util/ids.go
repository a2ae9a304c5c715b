package util

import (
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

func GenerateUUID() string {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		log.Fatalf("Failed to generate UUID: %v", err)
	}
	return newUUID.String()
}

// GenerateOrderNumber builds a gateway-compatible order reference: 12
// alphanumeric characters, the first ten a minute-resolution timestamp so
// references sort roughly by creation time, the last two random.
func GenerateOrderNumber(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:2]
	return now.Format("0601021504") + strings.ToUpper(suffix)
}
