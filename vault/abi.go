package vault

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/agentledger/memvault/core"
)

// Function selectors for the MemoryVault contract: first 4 bytes of
// keccak256 of the canonical signature.
var (
	selectorStoreMemoryFor  = selector("storeMemoryFor(address,bytes32,string)")
	selectorGetLatestMemory = selector("getLatestMemory(address,bytes32)")
	selectorGetMemory       = selector("getMemory(address,bytes32,uint256)")
	selectorGetMemoryCount  = selector("getMemoryCount(address,bytes32)")
)

const wordSize = 32

func selector(signature string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return h.Sum(nil)[:4]
}

// encodeAddress pads a 20-byte address to a 32-byte word (left-padded).
// A malformed address encodes as the zero word; callers check
// Address.Valid before building calldata.
func encodeAddress(addr core.Address) []byte {
	padded := make([]byte, wordSize)
	s := strings.TrimPrefix(string(addr), "0x")
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 20 {
		return padded
	}
	copy(padded[wordSize-len(b):], b)
	return padded
}

// encodeUint256 encodes n as a 32-byte left-padded big-endian word.
func encodeUint256(n uint64) []byte {
	padded := make([]byte, wordSize)
	b := new(big.Int).SetUint64(n).Bytes()
	copy(padded[wordSize-len(b):], b)
	return padded
}

// encodeString encodes a dynamic string argument: length word followed by
// the UTF-8 payload padded up to a word boundary. The caller places the
// offset word in the static section.
func encodeString(s string) []byte {
	payload := []byte(s)
	padded := (len(payload) + wordSize - 1) / wordSize * wordSize
	out := make([]byte, wordSize+padded)
	copy(out[:wordSize], encodeUint256(uint64(len(payload))))
	copy(out[wordSize:], payload)
	return out
}

// EncodeStoreMemoryFor builds calldata for
// storeMemoryFor(address owner, bytes32 topicKey, string content).
func EncodeStoreMemoryFor(owner core.Address, key core.TopicKey, content string) []byte {
	// Static section: owner word, key word, offset to the dynamic string
	// (relative to the start of the arguments, so 3 words in).
	data := make([]byte, 0, 4+4*wordSize+len(content))
	data = append(data, selectorStoreMemoryFor...)
	data = append(data, encodeAddress(owner)...)
	data = append(data, key[:]...)
	data = append(data, encodeUint256(3*wordSize)...)
	data = append(data, encodeString(content)...)
	return data
}

// EncodeGetLatestMemory builds calldata for getLatestMemory(owner, topicKey).
func EncodeGetLatestMemory(owner core.Address, key core.TopicKey) []byte {
	data := make([]byte, 0, 4+2*wordSize)
	data = append(data, selectorGetLatestMemory...)
	data = append(data, encodeAddress(owner)...)
	data = append(data, key[:]...)
	return data
}

// EncodeGetMemory builds calldata for getMemory(owner, topicKey, index).
func EncodeGetMemory(owner core.Address, key core.TopicKey, index uint64) []byte {
	data := make([]byte, 0, 4+3*wordSize)
	data = append(data, selectorGetMemory...)
	data = append(data, encodeAddress(owner)...)
	data = append(data, key[:]...)
	data = append(data, encodeUint256(index)...)
	return data
}

// EncodeGetMemoryCount builds calldata for getMemoryCount(owner, topicKey).
func EncodeGetMemoryCount(owner core.Address, key core.TopicKey) []byte {
	data := make([]byte, 0, 4+2*wordSize)
	data = append(data, selectorGetMemoryCount...)
	data = append(data, encodeAddress(owner)...)
	data = append(data, key[:]...)
	return data
}

// decodeUint256 decodes a 32-byte big-endian word. Values beyond uint64 do
// not occur for counts or timestamps; the low 8 bytes are taken.
func decodeUint256(word []byte) uint64 {
	return new(big.Int).SetBytes(word).Uint64()
}

// decodeUint64Word decodes a word that must fit in uint64. ABI offsets and
// lengths never legitimately exceed the payload size, so nonzero high bytes
// mark a malformed response.
func decodeUint64Word(word []byte) (uint64, error) {
	for _, b := range word[:wordSize-8] {
		if b != 0 {
			return 0, fmt.Errorf("word value exceeds uint64")
		}
	}
	return binary.BigEndian.Uint64(word[wordSize-8:]), nil
}

// decodeAddressWord extracts the 20-byte address from a left-padded word.
func decodeAddressWord(word []byte) core.Address {
	return core.Address("0x" + hex.EncodeToString(word[wordSize-20:]))
}

// DecodeRecord decodes the (uint256 timestamp, address writer, string content)
// return layout shared by getLatestMemory and getMemory.
func DecodeRecord(data []byte) (*core.Record, error) {
	if len(data) < 3*wordSize {
		return nil, fmt.Errorf("record return too short: %d bytes", len(data))
	}
	timestamp := decodeUint256(data[:wordSize])
	writer := decodeAddressWord(data[wordSize : 2*wordSize])

	// Offset and length come from the wire; comparisons must not wrap, or a
	// garbled return turns into a slice panic instead of an error.
	offset, err := decodeUint64Word(data[2*wordSize : 3*wordSize])
	if err != nil {
		return nil, fmt.Errorf("string offset: %w", err)
	}
	if offset > uint64(len(data))-wordSize {
		return nil, fmt.Errorf("string offset %d out of bounds", offset)
	}
	length, err := decodeUint64Word(data[offset : offset+wordSize])
	if err != nil {
		return nil, fmt.Errorf("string length: %w", err)
	}
	start := offset + wordSize
	if length > uint64(len(data))-start {
		return nil, fmt.Errorf("string length %d out of bounds", length)
	}

	return &core.Record{
		Timestamp: int64(timestamp),
		Writer:    writer,
		Content:   string(data[start : start+length]),
	}, nil
}

// DecodeCount decodes a getMemoryCount return value.
func DecodeCount(data []byte) (uint64, error) {
	if len(data) < wordSize {
		return 0, fmt.Errorf("count return too short: %d bytes", len(data))
	}
	return decodeUint256(data[:wordSize]), nil
}

// HexEncode returns the 0x-prefixed hex encoding of data.
func HexEncode(data []byte) string {
	return "0x" + hex.EncodeToString(data)
}
