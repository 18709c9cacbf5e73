// Package ethereum is the destination-chain client of spec §4.7: it reads
// the bridge contract's trusted anchor and verifying-key digest, and
// submits proof/public-values pairs with confirmation/retry discipline.
package ethereum

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// NumConfirmations and ConfirmationTimeout are the destination-chain
// submission policy from spec §4.7/§6: 2 required confirmations, 300s.
const (
	NumConfirmations    = 2
	ConfirmationTimeout = 300 * time.Second
	minGasPriceGwei     = 5
)

// bridgeContractABI is the subset of the destination contract's ABI this
// client consumes, per spec §6.
const bridgeContractABI = `[
	{"type":"function","name":"latestBlock","inputs":[],"outputs":[{"type":"uint64"}],"stateMutability":"view"},
	{"type":"function","name":"blockHeightToHeaderHash","inputs":[{"type":"uint64"}],"outputs":[{"type":"bytes32"}],"stateMutability":"view"},
	{"type":"function","name":"BRIDGE_COMMITMENT_MAX","inputs":[],"outputs":[{"type":"uint64"}],"stateMutability":"view"},
	{"type":"function","name":"vKey","inputs":[],"outputs":[{"type":"bytes32"}],"stateMutability":"view"},
	{"type":"function","name":"commitHeaderRange","inputs":[{"name":"proof","type":"bytes"},{"name":"publicValues","type":"bytes"}],"outputs":[],"stateMutability":"nonpayable"}
]`

// BridgeClient talks to the destination bridge contract.
type BridgeClient struct {
	client         *ethclient.Client
	chainID        *big.Int
	contractAddr   common.Address
	contractABI    abi.ABI
	privateKey     *ecdsa.PrivateKey
	fromAddress    common.Address
}

// NewBridgeClient dials the EVM RPC endpoint and loads the signing key used
// to submit header-range commitments.
func NewBridgeClient(ctx context.Context, rpcURL string, contractAddr common.Address, privateKeyHex string) (*BridgeClient, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("connect evm rpc: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(bridgeContractABI))
	if err != nil {
		return nil, fmt.Errorf("parse bridge contract abi: %w", err)
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	publicKeyECDSA, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("derive public key: unexpected key type")
	}

	return &BridgeClient{
		client:       client,
		chainID:      chainID,
		contractAddr: contractAddr,
		contractABI:  parsedABI,
		privateKey:   privateKey,
		fromAddress:  crypto.PubkeyToAddress(*publicKeyECDSA),
	}, nil
}

// LatestSync returns the current trusted anchor (height, header_hash).
func (c *BridgeClient) LatestSync(ctx context.Context) (height uint64, headerHash [32]byte, err error) {
	height, err = c.latestBlock(ctx)
	if err != nil {
		return 0, headerHash, err
	}
	headerHash, err = c.blockHeightToHeaderHash(ctx, height)
	if err != nil {
		return 0, headerHash, err
	}
	return height, headerHash, nil
}

func (c *BridgeClient) latestBlock(ctx context.Context) (uint64, error) {
	var out uint64
	if err := c.call(ctx, &out, "latestBlock"); err != nil {
		return 0, fmt.Errorf("read latestBlock: %w", err)
	}
	return out, nil
}

func (c *BridgeClient) blockHeightToHeaderHash(ctx context.Context, height uint64) ([32]byte, error) {
	var out [32]byte
	if err := c.call(ctx, &out, "blockHeightToHeaderHash", height); err != nil {
		return out, fmt.Errorf("read blockHeightToHeaderHash(%d): %w", height, err)
	}
	return out, nil
}

// BridgeCommitmentMax returns the protocol-enforced maximum span per proof.
func (c *BridgeClient) BridgeCommitmentMax(ctx context.Context) (uint64, error) {
	var out uint64
	if err := c.call(ctx, &out, "BRIDGE_COMMITMENT_MAX"); err != nil {
		return 0, fmt.Errorf("read BRIDGE_COMMITMENT_MAX: %w", err)
	}
	return out, nil
}

// ProgramVKey returns the verifying-key digest pinned on-chain.
func (c *BridgeClient) ProgramVKey(ctx context.Context) ([32]byte, error) {
	var out [32]byte
	if err := c.call(ctx, &out, "vKey"); err != nil {
		return out, fmt.Errorf("read vKey: %w", err)
	}
	return out, nil
}

// call performs a read-only contract call and unpacks the single return
// value into out.
func (c *BridgeClient) call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	data, err := c.contractABI.Pack(method, params...)
	if err != nil {
		return fmt.Errorf("pack %s: %w", method, err)
	}

	result, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &c.contractAddr,
		Data: data,
	}, nil)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}

	return c.contractABI.UnpackIntoInterface(out, method, result)
}

// ErrTxReverted is returned when commitHeaderRange's receipt indicates
// failure: fatal for the cycle per §4.7 (state read too stale or bad proof).
var ErrTxReverted = fmt.Errorf("bridge contract transaction reverted")

// CommitHeaderRange submits (proof, public_values) and waits for
// NumConfirmations with ConfirmationTimeout, escalating gas on retryable
// transient send errors. Transport errors before inclusion are retriable
// by the operator loop; a reverted receipt is not (ErrTxReverted).
func (c *BridgeClient) CommitHeaderRange(ctx context.Context, proof, publicValues []byte) (common.Hash, error) {
	callData, err := c.contractABI.Pack("commitHeaderRange", proof, publicValues)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack commitHeaderRange: %w", err)
	}

	const maxAttempts = 3
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		nonce, err := c.client.PendingNonceAt(ctx, c.fromAddress)
		if err != nil {
			return common.Hash{}, fmt.Errorf("fetch nonce: %w", err)
		}

		gasPrice, err := c.gasPrice(ctx, attempt)
		if err != nil {
			return common.Hash{}, err
		}

		gasLimit, err := c.client.EstimateGas(ctx, ethereum.CallMsg{
			From: c.fromAddress,
			To:   &c.contractAddr,
			Data: callData,
		})
		if err != nil {
			return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
		}

		tx := types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			To:       &c.contractAddr,
			Value:    big.NewInt(0),
			Gas:      gasLimit,
			GasPrice: gasPrice,
			Data:     callData,
		})

		signedTx, err := types.SignTx(tx, types.NewEIP155Signer(c.chainID), c.privateKey)
		if err != nil {
			return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
		}

		err = c.client.SendTransaction(ctx, signedTx)
		if err != nil {
			if isRetryableSendError(err) && attempt < maxAttempts-1 {
				lastErr = err
				time.Sleep(2 * time.Second)
				continue
			}
			return common.Hash{}, fmt.Errorf("send commitHeaderRange: %w", err)
		}

		receipt, err := c.waitForConfirmations(ctx, signedTx.Hash())
		if err != nil {
			return signedTx.Hash(), fmt.Errorf("await confirmation: %w", err)
		}
		if receipt.Status != types.ReceiptStatusSuccessful {
			return signedTx.Hash(), ErrTxReverted
		}
		return signedTx.Hash(), nil
	}

	return common.Hash{}, fmt.Errorf("send commitHeaderRange after %d attempts: %w", maxAttempts, lastErr)
}

// gasPrice returns the suggested gas price, floored at minGasPriceGwei and
// escalated 20% per retry attempt.
func (c *BridgeClient) gasPrice(ctx context.Context, attempt int) (*big.Int, error) {
	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}

	floor := big.NewInt(minGasPriceGwei * 1_000_000_000)
	if gasPrice.Cmp(floor) < 0 {
		gasPrice = floor
	}

	if attempt > 0 {
		multiplier := big.NewInt(int64(100 + 20*attempt))
		gasPrice = new(big.Int).Mul(gasPrice, multiplier)
		gasPrice = gasPrice.Div(gasPrice, big.NewInt(100))
	}
	return gasPrice, nil
}

func isRetryableSendError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "replacement transaction underpriced") ||
		strings.Contains(msg, "nonce too low") ||
		strings.Contains(msg, "already known")
}

// waitForConfirmations blocks until the transaction has NumConfirmations
// confirmations (its inclusion block counts as the first) or
// ConfirmationTimeout elapses.
func (c *BridgeClient) waitForConfirmations(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, ConfirmationTimeout)
	defer cancel()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for %d confirmations: %w", NumConfirmations, ctx.Err())
		case <-ticker.C:
			receipt, err := c.client.TransactionReceipt(ctx, txHash)
			if err != nil {
				continue
			}
			latest, err := c.client.BlockNumber(ctx)
			if err != nil {
				continue
			}
			if latest >= receipt.BlockNumber.Uint64()+NumConfirmations-1 {
				return receipt, nil
			}
		}
	}
}
