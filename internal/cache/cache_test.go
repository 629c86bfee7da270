package cache_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"devassist.app/engine/internal/cache"
	"devassist.app/engine/internal/model"
)

func snapshotFor(fileID, content string, cursor int) model.CodeContext {
	return model.CodeContext{FileID: fileID, Content: content, CursorPosition: cursor}
}

var _ = Describe("KeyFor", func() {
	It("is deterministic for identical inputs", func() {
		a := cache.KeyFor(snapshotFor("a.go", "body", 4), "dev-1", "v1")
		b := cache.KeyFor(snapshotFor("a.go", "body", 4), "dev-1", "v1")
		Expect(a).To(Equal(b))
	})

	DescribeTable("differs when any fingerprint input differs",
		func(other model.CodeContext, developerID, standardsVersion string) {
			base := cache.KeyFor(snapshotFor("a.go", "body", 4), "dev-1", "v1")
			Expect(cache.KeyFor(other, developerID, standardsVersion)).NotTo(Equal(base))
		},
		Entry("different content", snapshotFor("a.go", "body2", 4), "dev-1", "v1"),
		Entry("different cursor", snapshotFor("a.go", "body", 5), "dev-1", "v1"),
		Entry("different developer", snapshotFor("a.go", "body", 4), "dev-2", "v1"),
		Entry("different standards version", snapshotFor("a.go", "body", 4), "dev-1", "v2"),
		Entry("different file", snapshotFor("b.go", "body", 4), "dev-1", "v1"),
	)

	It("differs after a context epoch bump", func() {
		snap := snapshotFor("a.go", "body", 4)
		before := cache.KeyFor(snap, "dev-1", "v1")
		snap.Epoch++
		Expect(cache.KeyFor(snap, "dev-1", "v1")).NotTo(Equal(before))
	})

	It("is not fooled by field boundary shifts", func() {
		a := cache.KeyFor(snapshotFor("a.go", "bodyx", 0), "dev-1", "v1")
		b := cache.KeyFor(snapshotFor("a.go", "body", 0), "xdev-1", "v1")
		Expect(a).NotTo(Equal(b))
	})
})

var _ = Describe("Cache", func() {
	var (
		c    *cache.Cache
		key  cache.Key
		sugs []model.Suggestion
	)

	BeforeEach(func() {
		var err error
		c, err = cache.New(cache.Config{Capacity: 4, BaseTTL: time.Minute})
		Expect(err).NotTo(HaveOccurred())

		key = cache.KeyFor(snapshotFor("a.go", "body", 4), "dev-1", "v1")
		sugs = []model.Suggestion{{ID: "s-1", Code: "code", RelevanceScore: 90, Validated: true}}
	})

	It("misses on an empty cache", func() {
		_, ok := c.Get(key)
		Expect(ok).To(BeFalse())
	})

	It("returns exactly what was inserted", func() {
		c.Put(key, sugs, model.DegradationNormal)

		entry, ok := c.Get(key)
		Expect(ok).To(BeTrue())
		Expect(entry.Suggestions).To(Equal(sugs))
		Expect(entry.Key).To(Equal(key))
	})

	It("never returns an expired entry", func() {
		short, err := cache.New(cache.Config{Capacity: 4, BaseTTL: time.Nanosecond})
		Expect(err).NotTo(HaveOccurred())

		short.Put(key, sugs, model.DegradationNormal)
		time.Sleep(time.Millisecond)

		_, ok := short.Get(key)
		Expect(ok).To(BeFalse())
	})

	It("shrinks TTL under degradation", func() {
		entry := c.Put(key, sugs, model.DegradationMinimal)
		normal := c.Put(cache.KeyFor(snapshotFor("b.go", "x", 0), "dev-1", "v1"), sugs, model.DegradationNormal)

		minimalTTL := entry.ExpiresAt.Sub(entry.CreatedAt)
		normalTTL := normal.ExpiresAt.Sub(normal.CreatedAt)
		Expect(minimalTTL).To(BeNumerically("<", normalTTL))
	})

	It("invalidates every entry for a file and none for others", func() {
		otherFile := cache.KeyFor(snapshotFor("b.go", "x", 0), "dev-1", "v1")
		sameFileOtherDev := cache.KeyFor(snapshotFor("a.go", "body", 4), "dev-2", "v1")

		c.Put(key, sugs, model.DegradationNormal)
		c.Put(sameFileOtherDev, sugs, model.DegradationNormal)
		c.Put(otherFile, sugs, model.DegradationNormal)

		Expect(c.InvalidateFile("a.go")).To(Equal(2))

		_, ok := c.Get(key)
		Expect(ok).To(BeFalse())
		_, ok = c.Get(sameFileOtherDev)
		Expect(ok).To(BeFalse())
		_, ok = c.Get(otherFile)
		Expect(ok).To(BeTrue())
	})

	It("treats invalidation of an uncached file as a no-op", func() {
		Expect(c.InvalidateFile("never-seen.go")).To(Equal(0))
	})

	It("evicts least-recently-used entries when over capacity", func() {
		keys := make([]cache.Key, 5)
		for i := range keys {
			keys[i] = cache.KeyFor(snapshotFor("a.go", "body", i), "dev-1", "v1")
			c.Put(keys[i], sugs, model.DegradationNormal)
		}

		// Capacity 4: the first inserted key is gone, the rest remain.
		_, ok := c.Get(keys[0])
		Expect(ok).To(BeFalse())
		for _, k := range keys[1:] {
			_, ok := c.Get(k)
			Expect(ok).To(BeTrue())
		}
		Expect(c.Stats().Evictions).To(Equal(int64(1)))
	})

	It("tracks hits and misses", func() {
		c.Put(key, sugs, model.DegradationNormal)
		c.Get(key)
		c.Get(cache.KeyFor(snapshotFor("z.go", "", 0), "dev-1", "v1"))

		stats := c.Stats()
		Expect(stats.Hits).To(Equal(int64(1)))
		Expect(stats.Misses).To(Equal(int64(1)))
		Expect(stats.Size).To(Equal(1))
	})
})
