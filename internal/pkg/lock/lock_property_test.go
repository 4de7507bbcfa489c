package lock

import (
	"sync"
	"sync/atomic"
	"testing"

	"pgregory.net/rapid"
)

// TestConcurrentSettlementSafetyProperty checks that concurrent
// read-modify-write operations under the same key serialize to the
// sequential result.
func TestConcurrentSettlementSafetyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initialBalance := rapid.Int64Range(1000, 100000).Draw(t, "initialBalance")
		numOps := rapid.IntRange(2, 20).Draw(t, "numOps")

		amounts := make([]int64, numOps)
		expected := initialBalance
		for i := range amounts {
			amounts[i] = rapid.Int64Range(-500, 500).Draw(t, "amount")
			expected += amounts[i]
		}

		key := rapid.Int64Range(1, 1000000).Draw(t, "key")
		kl := NewKeyedLock()
		balance := initialBalance

		var wg sync.WaitGroup
		wg.Add(numOps)
		for _, amount := range amounts {
			go func(a int64) {
				defer wg.Done()
				kl.Lock(key)
				defer kl.Unlock(key)
				balance += a
			}(amount)
		}
		wg.Wait()

		if balance != expected {
			t.Fatalf("balance mismatch: expected %d, got %d (initial=%d, numOps=%d)",
				expected, balance, initialBalance, numOps)
		}
	})
}

// TestWithLockSerializesProperty checks that WithLock serializes its
// callbacks under a shared key.
func TestWithLockSerializesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initialBalance := rapid.Int64Range(1000, 100000).Draw(t, "initialBalance")
		numOps := rapid.IntRange(5, 30).Draw(t, "numOps")
		amountPerOp := rapid.Int64Range(1, 100).Draw(t, "amountPerOp")
		key := rapid.Int64Range(1, 1000000).Draw(t, "key")

		expected := initialBalance + int64(numOps)*amountPerOp

		kl := NewKeyedLock()
		balance := initialBalance

		var wg sync.WaitGroup
		wg.Add(numOps)
		for i := 0; i < numOps; i++ {
			go func() {
				defer wg.Done()
				_ = kl.WithLock(key, func() error {
					balance += amountPerOp
					return nil
				})
			}()
		}
		wg.Wait()

		if balance != expected {
			t.Fatalf("balance mismatch with WithLock: expected %d, got %d", expected, balance)
		}
	})
}

// TestIndependentKeysProperty checks that locks for different keys do not
// interfere with each other's serialization.
func TestIndependentKeysProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numKeys := rapid.IntRange(2, 10).Draw(t, "numKeys")
		opsPerKey := rapid.IntRange(5, 20).Draw(t, "opsPerKey")

		expected := make(map[int64]int64)
		balances := make(map[int64]*int64)
		for i := 0; i < numKeys; i++ {
			key := int64(i + 1)
			b := rapid.Int64Range(1000, 10000).Draw(t, "initialBalance")
			balances[key] = &b
			expected[key] = b + int64(opsPerKey)*10
		}

		kl := NewKeyedLock()

		var wg sync.WaitGroup
		wg.Add(numKeys * opsPerKey)
		for key := int64(1); key <= int64(numKeys); key++ {
			for j := 0; j < opsPerKey; j++ {
				go func(k int64) {
					defer wg.Done()
					kl.Lock(k)
					defer kl.Unlock(k)
					*balances[k] += 10
				}(key)
			}
		}
		wg.Wait()

		for key := int64(1); key <= int64(numKeys); key++ {
			if *balances[key] != expected[key] {
				t.Fatalf("key %d balance mismatch: expected %d, got %d",
					key, expected[key], *balances[key])
			}
		}
	})
}

// TestTryLockExclusionProperty checks that TryLock admits at least one
// winner and leaves the lock free afterwards.
func TestTryLockExclusionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		key := rapid.Int64Range(1, 1000000).Draw(t, "key")
		numAttempts := rapid.IntRange(5, 20).Draw(t, "numAttempts")

		kl := NewKeyedLock()

		var successCount atomic.Int32
		var wg sync.WaitGroup
		wg.Add(numAttempts)
		startCh := make(chan struct{})

		for i := 0; i < numAttempts; i++ {
			go func() {
				defer wg.Done()
				<-startCh
				if kl.TryLock(key) {
					successCount.Add(1)
					kl.Unlock(key)
				}
			}()
		}
		close(startCh)
		wg.Wait()

		if successCount.Load() < 1 {
			t.Fatalf("at least one TryLock should succeed, got %d successes", successCount.Load())
		}
		if !kl.TryLock(key) {
			t.Fatal("lock should be available after all attempts complete")
		}
		kl.Unlock(key)
	})
}

// TestLockUnlockSymmetryProperty checks that symmetric lock/unlock cycles
// leave the lock acquirable.
func TestLockUnlockSymmetryProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		key := rapid.Int64Range(1, 1000000).Draw(t, "key")
		numCycles := rapid.IntRange(1, 50).Draw(t, "numCycles")

		kl := NewKeyedLock()
		for i := 0; i < numCycles; i++ {
			kl.Lock(key)
			kl.Unlock(key)
		}

		if !kl.TryLock(key) {
			t.Fatal("lock should be available after symmetric cycles")
		}
		kl.Unlock(key)
	})
}
