package submit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferFromFlags(t *testing.T) {
	cmd := newPay()
	require.NoError(t, cmd.Flags().Set(toFlag, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"))
	require.NoError(t, cmd.Flags().Set(amountFlag, "1000000000000000000"))

	request, err := transferFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x9858EfFD232B4033E47d90003D41EC34EcaEda94"), request.To)
	assert.Equal(t, "1000000000000000000", request.Amount.ToInt().String())
	assert.Nil(t, request.Token)

	require.NoError(t, cmd.Flags().Set(tokenFlag, "0x6Fac4D18c912343BF86fa7049364Dd4E424Ab9C0"))
	request, err = transferFromFlags(cmd)
	require.NoError(t, err)
	require.NotNil(t, request.Token)
	assert.Equal(t, common.HexToAddress("0x6Fac4D18c912343BF86fa7049364Dd4E424Ab9C0"), *request.Token)
}

func TestTransferFromFlagsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		to     string
		amount string
		token  string
	}{
		{name: "recipient", to: "bob", amount: "1"},
		{name: "amount", to: "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", amount: "1.5"},
		{name: "token", to: "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", amount: "1", token: "usdc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newPay()
			require.NoError(t, cmd.Flags().Set(toFlag, tt.to))
			require.NoError(t, cmd.Flags().Set(amountFlag, tt.amount))
			require.NoError(t, cmd.Flags().Set(tokenFlag, tt.token))

			_, err := transferFromFlags(cmd)
			assert.Error(t, err)
		})
	}
}

func TestReadRequest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "request.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"action": "vote",
		"primaryType": "Vote",
		"types": {"Vote": [{"name": "proposal", "type": "uint256"}]},
		"message": {"proposal": "42"}
	}`), 0o600))

	request, err := readRequest(path)
	require.NoError(t, err)
	assert.Equal(t, "vote", string(request.Kind()))
	assert.Equal(t, "Vote", request.PrimaryType)
	assert.Equal(t, "42", request.Message["proposal"])

	_, err = readRequest(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
