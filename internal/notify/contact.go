package notify

import (
	"errors"

	"github.com/grafana/regexp"
)

// OwnerTag is the queue tag holding the owner's address
const OwnerTag = "owner_email"

// ErrEmailNotFound means neither the owner tag nor the fallback is a valid
// address
var ErrEmailNotFound = errors.New("no valid email found")

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// ValidEmail reports whether address is a single well-formed email address
func ValidEmail(address string) bool {
	return emailPattern.MatchString(address)
}

// contactFromTags picks the owner address out of a queue's tags
func contactFromTags(tags map[string]string) (string, bool) {
	address, ok := tags[OwnerTag]
	if !ok || !ValidEmail(address) {
		return "", false
	}
	return address, true
}
