package taint

// TaintableMemory tracks tainted memory words at word granularity, mirroring
// original_source/crates/analysis/src/taint/memory.rs.
type TaintableMemory struct {
	words    []bool
	wordSize int
}

// NewTaintableMemory constructs a memory taint map with the given word size
// in bytes (32 for standard EVM words).
func NewTaintableMemory(wordSize int) TaintableMemory {
	if wordSize <= 0 {
		wordSize = 32
	}
	return TaintableMemory{wordSize: wordSize}
}

func (m *TaintableMemory) ensureWordSize() {
	if m.wordSize == 0 {
		m.wordSize = 32
	}
}

// Taint marks every word touched by size bytes starting at offset as tainted.
func (m *TaintableMemory) Taint(offset, size int) { m.set(offset, size, true) }

// Clean marks every word touched by size bytes starting at offset as clean.
func (m *TaintableMemory) Clean(offset, size int) { m.set(offset, size, false) }

func (m *TaintableMemory) set(offset, size int, tainted bool) {
	if size <= 0 {
		return
	}
	m.ensureWordSize()
	start := offset / m.wordSize
	end := (offset + size + m.wordSize - 1) / m.wordSize
	if end > len(m.words) {
		grown := make([]bool, end)
		copy(grown, m.words)
		m.words = grown
	}
	for i := start; i < end; i++ {
		m.words[i] = tainted
	}
}

// IsTainted reports whether any word touched by [offset, offset+size) is
// tainted.
func (m *TaintableMemory) IsTainted(offset, size int) bool {
	if size <= 0 {
		return false
	}
	m.ensureWordSize()
	start := offset / m.wordSize
	end := (offset + size + m.wordSize - 1) / m.wordSize
	if end > len(m.words) {
		end = len(m.words)
	}
	for i := start; i < end; i++ {
		if m.words[i] {
			return true
		}
	}
	return false
}
