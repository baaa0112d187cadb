package testutil

import (
	"github.com/tetratelabs/wabin/binary"
	"github.com/tetratelabs/wabin/leb128"
	"github.com/tetratelabs/wabin/wasm"
)

// ValType is a core wasm value type.
type ValType = wasm.ValueType

const (
	I32 = wasm.ValueTypeI32
	I64 = wasm.ValueTypeI64
)

func op(code wasm.Opcode, imm []byte) []byte {
	return append([]byte{code}, imm...)
}

// LocalGet pushes local idx.
func LocalGet(idx uint32) []byte { return op(wasm.OpcodeLocalGet, leb128.EncodeUint32(idx)) }

// GlobalGet pushes global idx.
func GlobalGet(idx uint32) []byte { return op(wasm.OpcodeGlobalGet, leb128.EncodeUint32(idx)) }

// GlobalSet pops into global idx.
func GlobalSet(idx uint32) []byte { return op(wasm.OpcodeGlobalSet, leb128.EncodeUint32(idx)) }

// Call calls function idx.
func Call(idx uint32) []byte { return op(wasm.OpcodeCall, leb128.EncodeUint32(idx)) }

// I32Const pushes v.
func I32Const(v int32) []byte { return op(wasm.OpcodeI32Const, leb128.EncodeInt32(v)) }

// I64Const pushes v.
func I64Const(v int64) []byte { return op(wasm.OpcodeI64Const, leb128.EncodeInt64(v)) }

// I32Add adds the two i32 values on top of the stack.
func I32Add() []byte { return []byte{wasm.OpcodeI32Add} }

// Drop discards the top of the stack.
func Drop() []byte { return []byte{wasm.OpcodeDrop} }

// I64ExtendI32U widens the i32 on top of the stack to i64.
func I64ExtendI32U() []byte { return []byte{wasm.OpcodeI64ExtendI32U} }

// I64ShrU shifts the second i64 on the stack right by the first.
func I64ShrU() []byte { return []byte{wasm.OpcodeI64ShrU} }

// I32WrapI64 truncates the i64 on top of the stack to i32.
func I32WrapI64() []byte { return []byte{wasm.OpcodeI32WrapI64} }

// WasmModule assembles small core wasm modules for host-side tests on top of wabin's
// module model. All imports must be declared before the first function.
type WasmModule struct {
	mod *wasm.Module
}

// NewWasmModule returns a module with one exported page of memory named "memory".
func NewWasmModule() *WasmModule {
	return &WasmModule{mod: &wasm.Module{
		MemorySection: &wasm.Memory{Min: 1},
		ExportSection: []*wasm.Export{{Type: wasm.ExternTypeMemory, Name: "memory", Index: 0}},
	}}
}

func (m *WasmModule) typeIndex(params, results []ValType) wasm.Index {
	for i, t := range m.mod.TypeSection {
		if t.EqualsSignature(params, results) {
			return wasm.Index(i)
		}
	}
	m.mod.TypeSection = append(m.mod.TypeSection, &wasm.FunctionType{Params: params, Results: results})
	return wasm.Index(len(m.mod.TypeSection) - 1)
}

// Import declares an imported function and returns its function index.
func (m *WasmModule) Import(module, name string, params, results []ValType) uint32 {
	if len(m.mod.FunctionSection) > 0 {
		panic("testutil: imports must precede functions")
	}
	m.mod.ImportSection = append(m.mod.ImportSection, &wasm.Import{
		Type:     wasm.ExternTypeFunc,
		Module:   module,
		Name:     name,
		DescFunc: m.typeIndex(params, results),
	})
	return uint32(len(m.mod.ImportSection) - 1)
}

// Func defines a function, exported under export unless export is empty, and returns
// its function index. body holds the instructions without the final end.
func (m *WasmModule) Func(export string, params, results []ValType, body ...[]byte) uint32 {
	var code []byte
	for _, b := range body {
		code = append(code, b...)
	}
	code = append(code, wasm.OpcodeEnd)

	m.mod.FunctionSection = append(m.mod.FunctionSection, m.typeIndex(params, results))
	m.mod.CodeSection = append(m.mod.CodeSection, &wasm.Code{Body: code})

	idx := uint32(len(m.mod.ImportSection) + len(m.mod.FunctionSection) - 1)
	if export != "" {
		m.mod.ExportSection = append(m.mod.ExportSection, &wasm.Export{Type: wasm.ExternTypeFunc, Name: export, Index: idx})
	}
	return idx
}

// Global defines a mutable global and returns its index.
func (m *WasmModule) Global(typ ValType, init int32) uint32 {
	expr := &wasm.ConstantExpression{Opcode: wasm.OpcodeI32Const, Data: leb128.EncodeInt32(init)}
	if typ == I64 {
		expr = &wasm.ConstantExpression{Opcode: wasm.OpcodeI64Const, Data: leb128.EncodeInt64(int64(init))}
	}
	m.mod.GlobalSection = append(m.mod.GlobalSection, &wasm.Global{
		Type: &wasm.GlobalType{ValType: typ, Mutable: true},
		Init: expr,
	})
	return uint32(len(m.mod.GlobalSection) - 1)
}

// Data places data at offset when the module is instantiated.
func (m *WasmModule) Data(offset int32, data []byte) {
	m.mod.DataSection = append(m.mod.DataSection, &wasm.DataSegment{
		OffsetExpression: &wasm.ConstantExpression{Opcode: wasm.OpcodeI32Const, Data: leb128.EncodeInt32(offset)},
		Init:             data,
	})
}

// Binary encodes the module in the wasm binary format.
func (m *WasmModule) Binary() []byte {
	return binary.EncodeModule(m.mod)
}

// GuestABI builds the module used by host tests: a bump allocator exported as allocate
// plus the env and wasi imports a guest links against. The returned indices name the
// imported functions.
type GuestABI struct {
	*WasmModule
	HTTPRequest uint32
	ConsoleLog  uint32
	BufferLog   uint32
	ProcExit    uint32
	Heap        uint32
}

// NewGuestABI returns a module importing env.httpRequest, env.consoleLog, env.bufferLog
// and wasi proc_exit, with an allocate export bumping from heapStart.
func NewGuestABI(heapStart int32) *GuestABI {
	m := NewWasmModule()
	g := &GuestABI{WasmModule: m}
	g.HTTPRequest = m.Import("env", "httpRequest", []ValType{I32, I32}, []ValType{I64})
	g.ConsoleLog = m.Import("env", "consoleLog", []ValType{I32, I32}, nil)
	g.BufferLog = m.Import("env", "bufferLog", []ValType{I32, I32}, nil)
	g.ProcExit = m.Import("wasi_snapshot_preview1", "proc_exit", []ValType{I32}, nil)

	g.Heap = m.Global(I32, heapStart)
	m.Func("allocate", []ValType{I32}, []ValType{I32},
		GlobalGet(g.Heap),
		GlobalGet(g.Heap), LocalGet(0), I32Add(), GlobalSet(g.Heap),
	)
	return g
}

// ConstPointer packs offset and length the way a guest returns a fat pointer.
func ConstPointer(offset, length uint32) []byte {
	return I64Const(int64(uint64(offset)<<32 | uint64(length)))
}

// SplitPointer expands the fat pointer in local idx into (offset, length) i32 values.
func SplitPointer(idx uint32) []byte {
	var b []byte
	b = append(b, LocalGet(idx)...)
	b = append(b, I64Const(32)...)
	b = append(b, I64ShrU()...)
	b = append(b, I32WrapI64()...)
	b = append(b, LocalGet(idx)...)
	return append(b, I32WrapI64()...)
}
