package tron

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const contractTypeTransfer = "TransferContract"

// TransferInfo is the verified view of an on-chain TRX transfer.
type TransferInfo struct {
	TxHash      string
	AmountSun   int64
	FromAddress string
	ToAddress   string
	BlockTime   time.Time
}

// grid wire types, trimmed to the fields verification inspects.
type gridTransaction struct {
	TxID           string    `json:"txID"`
	BlockTimestamp int64     `json:"block_timestamp"`
	Ret            []gridRet `json:"ret"`
	RawData        struct {
		Contract []gridContract `json:"contract"`
	} `json:"raw_data"`
}

type gridRet struct {
	ContractRet string `json:"contractRet"`
}

type gridContract struct {
	Type      string `json:"type"`
	Parameter struct {
		Value struct {
			Amount       int64  `json:"amount"`
			OwnerAddress string `json:"owner_address"`
			ToAddress    string `json:"to_address"`
		} `json:"value"`
	} `json:"parameter"`
}

type gridResponse struct {
	Data    []gridTransaction `json:"data"`
	Success bool              `json:"success"`
}

// Client looks up transactions on a trongrid-compatible API and checks them
// against expected payment parameters. It performs no retries itself; the
// verification service owns the retry policy.
type Client struct {
	http     *resty.Client
	maxTxAge time.Duration
}

func NewClient(apiURL, apiKey string, timeout, maxTxAge time.Duration) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(apiURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		c.SetHeader("TRON-PRO-API-KEY", apiKey)
	}
	return &Client{http: c, maxTxAge: maxTxAge}
}

// getTransaction fetches a confirmed transaction by hash. A missing
// transaction and an unreachable API come back as distinct retryable kinds.
func (c *Client) getTransaction(ctx context.Context, txHash string) (*gridTransaction, error) {
	var out gridResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/v1/transactions/%s", txHash))
	if err != nil {
		return nil, newError(KindServiceUnavailable, "request failed: %v", err)
	}
	if resp.StatusCode() >= 500 || resp.StatusCode() == 429 {
		return nil, newError(KindServiceUnavailable, "api returned status %d", resp.StatusCode())
	}
	if resp.StatusCode() != 200 {
		return nil, newError(KindNotFound, "api returned status %d", resp.StatusCode())
	}
	if len(out.Data) == 0 {
		return nil, newError(KindNotFound, "transaction not found or not yet confirmed")
	}
	return &out.Data[0], nil
}

// Verify fetches txHash and checks that it is a successful TransferContract
// paying exactly expectedAmountSun to expectedToAddress (base58), no older
// than the configured max age.
func (c *Client) Verify(ctx context.Context, txHash string, expectedAmountSun int64, expectedToAddress string) (*TransferInfo, error) {
	// A malformed expected address is a configuration problem; fail before
	// spending an API call on it.
	expectedHex, err := DecodeBase58Address(expectedToAddress)
	if err != nil {
		return nil, newError(KindInvalidInput, "expected address: %v", err)
	}

	tx, err := c.getTransaction(ctx, txHash)
	if err != nil {
		return nil, err
	}

	if len(tx.Ret) == 0 || tx.Ret[0].ContractRet != "SUCCESS" {
		ret := "<missing>"
		if len(tx.Ret) > 0 {
			ret = tx.Ret[0].ContractRet
		}
		return nil, newError(KindTransactionFailed, "contract result %s", ret)
	}
	if len(tx.RawData.Contract) == 0 {
		return nil, newError(KindWrongContractType, "transaction carries no contract")
	}
	contract := tx.RawData.Contract[0]
	if contract.Type != contractTypeTransfer {
		return nil, newError(KindWrongContractType, "contract type %s, want %s", contract.Type, contractTypeTransfer)
	}

	value := contract.Parameter.Value
	if value.Amount != expectedAmountSun {
		return nil, newError(KindAmountMismatch, "paid %d sun, expected %d sun", value.Amount, expectedAmountSun)
	}

	if !strings.EqualFold(normalizeHexAddress(value.ToAddress), expectedHex) {
		return nil, newError(KindRecipientMismatch, "paid to %s, expected %s", value.ToAddress, expectedToAddress)
	}

	blockTime := time.UnixMilli(tx.BlockTimestamp)
	if c.maxTxAge > 0 && time.Since(blockTime) > c.maxTxAge {
		return nil, newError(KindStale, "transaction from %s is older than %s", blockTime.UTC().Format(time.RFC3339), c.maxTxAge)
	}

	return &TransferInfo{
		TxHash:      txHash,
		AmountSun:   value.Amount,
		FromAddress: normalizeHexAddress(value.OwnerAddress),
		ToAddress:   normalizeHexAddress(value.ToAddress),
		BlockTime:   blockTime,
	}, nil
}

// normalizeHexAddress lowercases and strips an optional 0x prefix. The API
// returns addresses as 41-prefixed hex without 0x, but be lenient.
func normalizeHexAddress(s string) string {
	s = strings.ToLower(s)
	s = strings.TrimPrefix(s, "0x")
	if _, err := hex.DecodeString(s); err != nil {
		return s
	}
	return s
}
