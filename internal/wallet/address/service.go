package address

import (
	"fmt"
)

const bip44PathFormat = "m/44'/60'/0'/0/%d"

type service struct{}

// NewService creates a new address Service
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService() Service {
	return &service{}
}

func (s *service) GetBIP44Path(index uint32) string {
	return fmt.Sprintf(bip44PathFormat, index)
}
