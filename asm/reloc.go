/*
Copyright (C) 2026  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package asm

// RelocKind classifies how an embedded address must be patched when code
// or its referenced symbol moves.
type RelocKind uint8

const (
	RelocNone RelocKind = iota
	RelocExternalWord
	RelocInternalWord
	RelocCall
	RelocStaticCall
	RelocOptVirtualCall
	RelocRuntimeCall
	RelocPoll
	RelocPollReturn
)

func (k RelocKind) String() string {
	switch k {
	case RelocNone:
		return "none"
	case RelocExternalWord:
		return "external_word"
	case RelocInternalWord:
		return "internal_word"
	case RelocCall:
		return "call"
	case RelocStaticCall:
		return "static_call"
	case RelocOptVirtualCall:
		return "opt_virtual_call"
	case RelocRuntimeCall:
		return "runtime_call"
	case RelocPoll:
		return "poll"
	case RelocPollReturn:
		return "poll_return"
	}
	return "invalid"
}

// Relocation is one patch record. Offset is always the first byte of the
// owning instruction (the instruction mark), never the offset of the
// embedded literal, so a patcher can re-decode the whole instruction.
type Relocation struct {
	Offset int
	Kind   RelocKind
	Target uint64 // symbolic target address, 0 if none
}

func relocLess(a, b Relocation) bool { return a.Offset < b.Offset }
