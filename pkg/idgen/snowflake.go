package idgen

import (
	"fmt"
	"log"
	"sync"
	"time"
)

const (
	epoch        = int64(1704067200000) // 2024-01-01 00:00:00 UTC in ms
	machineBits  = uint(10)
	sequenceBits = uint(12)
	machineMax   = int64(-1 ^ (-1 << machineBits))
	sequenceMask = int64(-1 ^ (-1 << sequenceBits))
	machineShift = sequenceBits
	timeShift    = sequenceBits + machineBits
)

// Snowflake generates time-ordered unique int64 IDs.
type Snowflake struct {
	mu        sync.Mutex
	timestamp int64
	machineID int64
	sequence  int64
}

var generator *Snowflake

func Init(machineID int64) {
	if machineID < 0 || machineID > machineMax {
		log.Fatalf("[IDGen] machine id %d out of range [0, %d]", machineID, machineMax)
	}
	generator = &Snowflake{machineID: machineID}
}

func (s *Snowflake) NextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	if now == s.timestamp {
		s.sequence = (s.sequence + 1) & sequenceMask
		if s.sequence == 0 {
			for now <= s.timestamp {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		s.sequence = 0
	}
	s.timestamp = now

	return (now-epoch)<<timeShift | s.machineID<<machineShift | s.sequence
}

func NextID() int64 {
	return generator.NextID()
}

// GenerateWithdrawalNo builds a human-scannable withdrawal number:
// prefix + date + a compact slice of the snowflake ID.
func GenerateWithdrawalNo() string {
	return fmt.Sprintf("WDR%s%08d", time.Now().Format("20060102150405"), NextID()%100000000)
}

// GenerateReferralNo numbers settlement events for outbox message keys.
func GenerateReferralNo() string {
	return fmt.Sprintf("REF%s%08d", time.Now().Format("20060102150405"), NextID()%100000000)
}
