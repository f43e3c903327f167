// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package governance

import (
	"github.com/luxfi/ids"
	"golang.org/x/crypto/sha3"

	"github.com/luxfi/collab/state"
)

// Choice tags prefixed to the secret of a vote.
const (
	UpholdTag byte = '1'
	VetoTag   byte = '2'
)

// EncodeVote returns the reveal preimage of a vote: choiceTag || secret.
func EncodeVote(choice state.Choice, secret []byte) ([]byte, error) {
	var tag byte
	switch choice {
	case state.Uphold:
		tag = UpholdTag
	case state.Veto:
		tag = VetoTag
	default:
		return nil, ErrInvalidChoice
	}
	preimage := make([]byte, 0, 1+len(secret))
	preimage = append(preimage, tag)
	return append(preimage, secret...), nil
}

// DecodeVote splits a reveal preimage into its choice and secret.
func DecodeVote(preimage []byte) (state.Choice, []byte, error) {
	if len(preimage) == 0 {
		return state.NoChoice, nil, ErrInvalidChoice
	}
	switch preimage[0] {
	case UpholdTag:
		return state.Uphold, preimage[1:], nil
	case VetoTag:
		return state.Veto, preimage[1:], nil
	default:
		return state.NoChoice, nil, ErrInvalidChoice
	}
}

// ComputeCommitment returns the commitment to a vote:
// keccak256(choiceTag || secret).
func ComputeCommitment(choice state.Choice, secret []byte) (ids.ID, error) {
	preimage, err := EncodeVote(choice, secret)
	if err != nil {
		return ids.Empty, err
	}
	return hashPreimage(preimage), nil
}

// VerifyCommitment reports whether preimage hashes to commitment.
func VerifyCommitment(commitment ids.ID, preimage []byte) bool {
	return hashPreimage(preimage) == commitment
}

func hashPreimage(preimage []byte) ids.ID {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(preimage)

	var id ids.ID
	copy(id[:], h.Sum(nil))
	return id
}
