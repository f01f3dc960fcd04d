package signature

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// CheckInDigest returns keccak256(abi.encodePacked(uint256 projectId, string proofHash,
// uint256 timestamp, address signer)). Timestamps are unix seconds and must not be negative.
func CheckInDigest(projectID uint64, proofHash string, timestamp int64, signer common.Address) common.Hash {
	return crypto.Keccak256Hash(
		packUint256(projectID),
		[]byte(proofHash),
		packUint256(uint64(timestamp)),
		signer.Bytes(),
	)
}

// ActionDigest returns keccak256(abi.encodePacked(string action, uint256 projectId,
// uint256 timestamp, address signer)). It authenticates create, join and finish calls.
func ActionDigest(action string, projectID uint64, timestamp int64, signer common.Address) common.Hash {
	return crypto.Keccak256Hash(
		[]byte(action),
		packUint256(projectID),
		packUint256(uint64(timestamp)),
		signer.Bytes(),
	)
}

func packUint256(v uint64) []byte {
	word := make([]byte, 32)
	binary.BigEndian.PutUint64(word[24:], v)
	return word
}
