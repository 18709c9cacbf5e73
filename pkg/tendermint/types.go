// Package tendermint holds the wire-level data model shared between the
// source-chain client, the advancement search, and the proof program.
package tendermint

import (
	"fmt"

	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	cmttypes "github.com/cometbft/cometbft/types"
)

// LightBlock is a signed header plus the validator sets needed to verify a
// skip from it. It mirrors cometbft's own light.LightBlock but is carried as
// a plain struct here so its own MarshalCBOR/UnmarshalCBOR (below) control
// exactly how the protobuf-backed fields are serialized.
type LightBlock struct {
	SignedHeader     *cmttypes.SignedHeader
	ValidatorSet     *cmttypes.ValidatorSet
	NextValidatorSet *cmttypes.ValidatorSet
}

// Height returns the block height carried by the signed header.
func (lb *LightBlock) Height() int64 {
	return lb.SignedHeader.Header.Height
}

// HeaderHash returns the canonical hash of the header.
func (lb *LightBlock) HeaderHash() [32]byte {
	var out [32]byte
	copy(out[:], lb.SignedHeader.Header.Hash())
	return out
}

// LastResultsHash returns the header's last_results_hash field.
func (lb *LightBlock) LastResultsHash() [32]byte {
	var out [32]byte
	copy(out[:], lb.SignedHeader.Header.LastResultsHash)
	return out
}

// LastBlockIDHash returns the hash component of the header's last_block_id.
func (lb *LightBlock) LastBlockIDHash() [32]byte {
	var out [32]byte
	copy(out[:], lb.SignedHeader.Header.LastBlockID.Hash)
	return out
}

// Header is the subset of a light block used by the bridge-commitment
// builder: §3 of the spec. Contiguous header chains satisfy
// Header[i+1].LastBlockIDHash == Header[i].HeaderHash.
type Header struct {
	Height          uint64   `cbor:"height"`
	LastResultsHash [32]byte `cbor:"last_results_hash"`
	LastBlockIDHash [32]byte `cbor:"last_block_id_hash"`
	HeaderHash      [32]byte `cbor:"header_hash"`
}

// HeaderFromLightBlock extracts the Header subset used for commitment
// construction from a full LightBlock.
func HeaderFromLightBlock(lb *LightBlock) Header {
	return Header{
		Height:          uint64(lb.Height()),
		LastResultsHash: lb.LastResultsHash(),
		LastBlockIDHash: lb.LastBlockIDHash(),
		HeaderHash:      lb.HeaderHash(),
	}
}

// wireLightBlock is the on-the-wire shape of a LightBlock. cometbft's
// SignedHeader and ValidatorSet embed protobuf-generated types that do not
// round-trip under CBOR directly (unexported fields, interface-typed
// PubKeys), so the wire format carries each as a protobuf-marshaled blob and
// LightBlock.MarshalCBOR/UnmarshalCBOR convert at the boundary.
type wireLightBlock struct {
	SignedHeader     []byte `cbor:"signed_header"`
	ValidatorSet     []byte `cbor:"validator_set"`
	NextValidatorSet []byte `cbor:"next_validator_set"`
}

// ToWire converts a LightBlock into its CBOR-safe representation.
func (lb *LightBlock) ToWire() (*wireLightBlock, error) {
	shProto := lb.SignedHeader.ToProto()
	shBytes, err := shProto.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal signed header: %w", err)
	}

	vsProto, err := lb.ValidatorSet.ToProto()
	if err != nil {
		return nil, fmt.Errorf("marshal validator set: %w", err)
	}
	vsBytes, err := vsProto.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal validator set: %w", err)
	}

	nvsProto, err := lb.NextValidatorSet.ToProto()
	if err != nil {
		return nil, fmt.Errorf("marshal next validator set: %w", err)
	}
	nvsBytes, err := nvsProto.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal next validator set: %w", err)
	}

	return &wireLightBlock{
		SignedHeader:     shBytes,
		ValidatorSet:     vsBytes,
		NextValidatorSet: nvsBytes,
	}, nil
}

// LightBlockFromWire reconstructs a LightBlock from its CBOR-safe wire form.
func LightBlockFromWire(w *wireLightBlock) (*LightBlock, error) {
	var shProto cmtproto.SignedHeader
	if err := shProto.Unmarshal(w.SignedHeader); err != nil {
		return nil, fmt.Errorf("unmarshal signed header: %w", err)
	}
	sh, err := cmttypes.SignedHeaderFromProto(&shProto)
	if err != nil {
		return nil, fmt.Errorf("decode signed header: %w", err)
	}

	var vsProto cmtproto.ValidatorSet
	if err := vsProto.Unmarshal(w.ValidatorSet); err != nil {
		return nil, fmt.Errorf("unmarshal validator set: %w", err)
	}
	vs, err := cmttypes.ValidatorSetFromProto(&vsProto)
	if err != nil {
		return nil, fmt.Errorf("decode validator set: %w", err)
	}

	var nvsProto cmtproto.ValidatorSet
	if err := nvsProto.Unmarshal(w.NextValidatorSet); err != nil {
		return nil, fmt.Errorf("unmarshal next validator set: %w", err)
	}
	nvs, err := cmttypes.ValidatorSetFromProto(&nvsProto)
	if err != nil {
		return nil, fmt.Errorf("decode next validator set: %w", err)
	}

	return &LightBlock{SignedHeader: sh, ValidatorSet: vs, NextValidatorSet: nvs}, nil
}

// MarshalCBOR implements cbor.Marshaler.
func (lb *LightBlock) MarshalCBOR() ([]byte, error) {
	w, err := lb.ToWire()
	if err != nil {
		return nil, err
	}
	return cborMarshal(w)
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (lb *LightBlock) UnmarshalCBOR(data []byte) error {
	var w wireLightBlock
	if err := cborUnmarshal(data, &w); err != nil {
		return err
	}
	decoded, err := LightBlockFromWire(&w)
	if err != nil {
		return err
	}
	*lb = *decoded
	return nil
}
