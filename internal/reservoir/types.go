package reservoir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Transfer is one row of the bulk transfers feed.
type Transfer struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Amount     string `json:"amount"`
	Timestamp  int64  `json:"timestamp"`
	TxHash     string `json:"txHash"`
	LogIndex   *int64 `json:"logIndex,omitempty"`
	BatchIndex *int64 `json:"batchIndex,omitempty"`
}

type TransfersPage struct {
	Transfers    []Transfer `json:"transfers"`
	Continuation string     `json:"continuation"`
}

// FlexInt accepts both JSON numbers and numeric strings.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		b = []byte(s)
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		fl, ferr := strconv.ParseFloat(string(b), 64)
		if ferr != nil {
			return fmt.Errorf("invalid integer %q", b)
		}
		n = int64(fl)
	}
	*f = FlexInt(n)
	return nil
}

type Ownership struct {
	TokenCount FlexInt `json:"tokenCount"`
}

type Owner struct {
	Address   string    `json:"address"`
	Ownership Ownership `json:"ownership"`
}

type ownersResp struct {
	Owners []Owner `json:"owners"`
}

type Token struct {
	Contract string `json:"contract"`
	TokenID  string `json:"tokenId"`
	Name     string `json:"name"`
	Image    string `json:"image"`
}

type UserToken struct {
	Token Token `json:"token"`
}

type userTokensResp struct {
	Tokens []UserToken `json:"tokens"`
}
