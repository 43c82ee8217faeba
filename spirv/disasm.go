package spirv

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/shader-variants/errors"
)

// Magic is the first word of every SPIR-V module.
const Magic = 0x07230203

const headerWords = 5

type operand uint8

const (
	opID operand = iota
	opLiteral
	opString
	opCapability
	opAddressing
	opMemoryModel
	opExecModel
	opExecMode
	opStorage
	opDecoration
	opDim
	opFuncControl
	opIDs      // remaining operands are ids
	opLiterals // remaining operands are literals
)

type instr struct {
	name     string
	typed    bool // first operand is a result type
	result   bool // next operand is a result id
	operands []operand
}

var instructions = map[uint16]instr{
	0:   {name: "OpNop"},
	1:   {name: "OpUndef", typed: true, result: true},
	3:   {name: "OpSource", operands: []operand{opLiteral, opLiteral, opIDs}},
	4:   {name: "OpSourceExtension", operands: []operand{opString}},
	5:   {name: "OpName", operands: []operand{opID, opString}},
	6:   {name: "OpMemberName", operands: []operand{opID, opLiteral, opString}},
	7:   {name: "OpString", result: true, operands: []operand{opString}},
	10:  {name: "OpExtension", operands: []operand{opString}},
	11:  {name: "OpExtInstImport", result: true, operands: []operand{opString}},
	12:  {name: "OpExtInst", typed: true, result: true, operands: []operand{opID, opLiteral, opIDs}},
	14:  {name: "OpMemoryModel", operands: []operand{opAddressing, opMemoryModel}},
	15:  {name: "OpEntryPoint", operands: []operand{opExecModel, opID, opString, opIDs}},
	16:  {name: "OpExecutionMode", operands: []operand{opID, opExecMode, opLiterals}},
	17:  {name: "OpCapability", operands: []operand{opCapability}},
	19:  {name: "OpTypeVoid", result: true},
	20:  {name: "OpTypeBool", result: true},
	21:  {name: "OpTypeInt", result: true, operands: []operand{opLiteral, opLiteral}},
	22:  {name: "OpTypeFloat", result: true, operands: []operand{opLiteral}},
	23:  {name: "OpTypeVector", result: true, operands: []operand{opID, opLiteral}},
	24:  {name: "OpTypeMatrix", result: true, operands: []operand{opID, opLiteral}},
	25:  {name: "OpTypeImage", result: true, operands: []operand{opID, opDim, opLiterals}},
	26:  {name: "OpTypeSampler", result: true},
	27:  {name: "OpTypeSampledImage", result: true, operands: []operand{opID}},
	28:  {name: "OpTypeArray", result: true, operands: []operand{opID, opID}},
	29:  {name: "OpTypeRuntimeArray", result: true, operands: []operand{opID}},
	30:  {name: "OpTypeStruct", result: true, operands: []operand{opIDs}},
	32:  {name: "OpTypePointer", result: true, operands: []operand{opStorage, opID}},
	33:  {name: "OpTypeFunction", result: true, operands: []operand{opID, opIDs}},
	41:  {name: "OpConstantTrue", typed: true, result: true},
	42:  {name: "OpConstantFalse", typed: true, result: true},
	43:  {name: "OpConstant", typed: true, result: true, operands: []operand{opLiterals}},
	44:  {name: "OpConstantComposite", typed: true, result: true, operands: []operand{opIDs}},
	46:  {name: "OpConstantNull", typed: true, result: true},
	54:  {name: "OpFunction", typed: true, result: true, operands: []operand{opFuncControl, opID}},
	55:  {name: "OpFunctionParameter", typed: true, result: true},
	56:  {name: "OpFunctionEnd"},
	57:  {name: "OpFunctionCall", typed: true, result: true, operands: []operand{opID, opIDs}},
	59:  {name: "OpVariable", typed: true, result: true, operands: []operand{opStorage, opIDs}},
	61:  {name: "OpLoad", typed: true, result: true, operands: []operand{opID, opLiterals}},
	62:  {name: "OpStore", operands: []operand{opID, opID, opLiterals}},
	65:  {name: "OpAccessChain", typed: true, result: true, operands: []operand{opID, opIDs}},
	68:  {name: "OpArrayLength", typed: true, result: true, operands: []operand{opID, opLiteral}},
	71:  {name: "OpDecorate", operands: []operand{opID, opDecoration}},
	72:  {name: "OpMemberDecorate", operands: []operand{opID, opLiteral, opDecoration}},
	77:  {name: "OpVectorExtractDynamic", typed: true, result: true, operands: []operand{opID, opID}},
	78:  {name: "OpVectorInsertDynamic", typed: true, result: true, operands: []operand{opID, opID, opID}},
	79:  {name: "OpVectorShuffle", typed: true, result: true, operands: []operand{opID, opID, opLiterals}},
	80:  {name: "OpCompositeConstruct", typed: true, result: true, operands: []operand{opIDs}},
	81:  {name: "OpCompositeExtract", typed: true, result: true, operands: []operand{opID, opLiterals}},
	82:  {name: "OpCompositeInsert", typed: true, result: true, operands: []operand{opID, opID, opLiterals}},
	83:  {name: "OpCopyObject", typed: true, result: true, operands: []operand{opID}},
	84:  {name: "OpTranspose", typed: true, result: true, operands: []operand{opID}},
	86:  {name: "OpSampledImage", typed: true, result: true, operands: []operand{opID, opID}},
	87:  {name: "OpImageSampleImplicitLod", typed: true, result: true, operands: []operand{opID, opID, opLiterals}},
	88:  {name: "OpImageSampleExplicitLod", typed: true, result: true, operands: []operand{opID, opID, opLiterals}},
	95:  {name: "OpImageFetch", typed: true, result: true, operands: []operand{opID, opID, opLiterals}},
	98:  {name: "OpImageRead", typed: true, result: true, operands: []operand{opID, opID, opLiterals}},
	99:  {name: "OpImageWrite", operands: []operand{opID, opID, opID, opLiterals}},
	104: {name: "OpImageQuerySize", typed: true, result: true, operands: []operand{opID}},
	109: {name: "OpConvertFToU", typed: true, result: true, operands: []operand{opID}},
	110: {name: "OpConvertFToS", typed: true, result: true, operands: []operand{opID}},
	111: {name: "OpConvertSToF", typed: true, result: true, operands: []operand{opID}},
	112: {name: "OpConvertUToF", typed: true, result: true, operands: []operand{opID}},
	124: {name: "OpBitcast", typed: true, result: true, operands: []operand{opID}},
	126: {name: "OpSNegate", typed: true, result: true, operands: []operand{opID}},
	127: {name: "OpFNegate", typed: true, result: true, operands: []operand{opID}},
	128: {name: "OpIAdd", typed: true, result: true, operands: []operand{opID, opID}},
	129: {name: "OpFAdd", typed: true, result: true, operands: []operand{opID, opID}},
	130: {name: "OpISub", typed: true, result: true, operands: []operand{opID, opID}},
	131: {name: "OpFSub", typed: true, result: true, operands: []operand{opID, opID}},
	132: {name: "OpIMul", typed: true, result: true, operands: []operand{opID, opID}},
	133: {name: "OpFMul", typed: true, result: true, operands: []operand{opID, opID}},
	134: {name: "OpUDiv", typed: true, result: true, operands: []operand{opID, opID}},
	135: {name: "OpSDiv", typed: true, result: true, operands: []operand{opID, opID}},
	136: {name: "OpFDiv", typed: true, result: true, operands: []operand{opID, opID}},
	137: {name: "OpUMod", typed: true, result: true, operands: []operand{opID, opID}},
	139: {name: "OpSMod", typed: true, result: true, operands: []operand{opID, opID}},
	141: {name: "OpFMod", typed: true, result: true, operands: []operand{opID, opID}},
	142: {name: "OpVectorTimesScalar", typed: true, result: true, operands: []operand{opID, opID}},
	143: {name: "OpMatrixTimesScalar", typed: true, result: true, operands: []operand{opID, opID}},
	144: {name: "OpVectorTimesMatrix", typed: true, result: true, operands: []operand{opID, opID}},
	145: {name: "OpMatrixTimesVector", typed: true, result: true, operands: []operand{opID, opID}},
	146: {name: "OpMatrixTimesMatrix", typed: true, result: true, operands: []operand{opID, opID}},
	148: {name: "OpDot", typed: true, result: true, operands: []operand{opID, opID}},
	164: {name: "OpAny", typed: true, result: true, operands: []operand{opID}},
	165: {name: "OpAll", typed: true, result: true, operands: []operand{opID}},
	166: {name: "OpIsNan", typed: true, result: true, operands: []operand{opID}},
	167: {name: "OpIsInf", typed: true, result: true, operands: []operand{opID}},
	176: {name: "OpLogicalOr", typed: true, result: true, operands: []operand{opID, opID}},
	177: {name: "OpLogicalAnd", typed: true, result: true, operands: []operand{opID, opID}},
	178: {name: "OpLogicalNot", typed: true, result: true, operands: []operand{opID}},
	179: {name: "OpSelect", typed: true, result: true, operands: []operand{opID, opID, opID}},
	180: {name: "OpIEqual", typed: true, result: true, operands: []operand{opID, opID}},
	181: {name: "OpINotEqual", typed: true, result: true, operands: []operand{opID, opID}},
	182: {name: "OpUGreaterThan", typed: true, result: true, operands: []operand{opID, opID}},
	183: {name: "OpSGreaterThan", typed: true, result: true, operands: []operand{opID, opID}},
	186: {name: "OpULessThan", typed: true, result: true, operands: []operand{opID, opID}},
	187: {name: "OpSLessThan", typed: true, result: true, operands: []operand{opID, opID}},
	190: {name: "OpFOrdEqual", typed: true, result: true, operands: []operand{opID, opID}},
	192: {name: "OpFOrdNotEqual", typed: true, result: true, operands: []operand{opID, opID}},
	184: {name: "OpUGreaterThanEqual", typed: true, result: true, operands: []operand{opID, opID}},
	185: {name: "OpSGreaterThanEqual", typed: true, result: true, operands: []operand{opID, opID}},
	188: {name: "OpULessThanEqual", typed: true, result: true, operands: []operand{opID, opID}},
	189: {name: "OpSLessThanEqual", typed: true, result: true, operands: []operand{opID, opID}},
	194: {name: "OpShiftRightLogical", typed: true, result: true, operands: []operand{opID, opID}},
	195: {name: "OpShiftRightArithmetic", typed: true, result: true, operands: []operand{opID, opID}},
	196: {name: "OpShiftLeftLogical", typed: true, result: true, operands: []operand{opID, opID}},
	197: {name: "OpBitwiseOr", typed: true, result: true, operands: []operand{opID, opID}},
	198: {name: "OpBitwiseXor", typed: true, result: true, operands: []operand{opID, opID}},
	199: {name: "OpBitwiseAnd", typed: true, result: true, operands: []operand{opID, opID}},
	200: {name: "OpNot", typed: true, result: true, operands: []operand{opID}},
	245: {name: "OpPhi", typed: true, result: true, operands: []operand{opIDs}},
	246: {name: "OpLoopMerge", operands: []operand{opID, opID, opLiterals}},
	247: {name: "OpSelectionMerge", operands: []operand{opID, opLiteral}},
	248: {name: "OpLabel", result: true},
	249: {name: "OpBranch", operands: []operand{opID}},
	250: {name: "OpBranchConditional", operands: []operand{opID, opID, opID, opLiterals}},
	251: {name: "OpSwitch", operands: []operand{opID, opID, opLiterals}},
	252: {name: "OpKill"},
	253: {name: "OpReturn"},
	254: {name: "OpReturnValue", operands: []operand{opID}},
	255: {name: "OpUnreachable"},
}

var enumNames = map[operand]map[uint32]string{
	opCapability: {
		0: "Matrix", 1: "Shader", 2: "Geometry", 3: "Tessellation", 9: "Float16",
		10: "Float64", 11: "Int64", 22: "Int16", 38: "Int8", 49: "ImageQuery",
		50: "DerivativeControl", 56: "MultiViewport", 4427: "DrawParameters",
		4442: "MultiView",
	},
	opAddressing:  {0: "Logical", 1: "Physical32", 2: "Physical64", 5348: "PhysicalStorageBuffer64"},
	opMemoryModel: {0: "Simple", 1: "GLSL450", 2: "OpenCL", 3: "Vulkan"},
	opExecModel: {
		0: "Vertex", 1: "TessellationControl", 2: "TessellationEvaluation",
		3: "Geometry", 4: "Fragment", 5: "GLCompute", 6: "Kernel",
	},
	opExecMode: {
		7: "OriginUpperLeft", 8: "OriginLowerLeft", 9: "EarlyFragmentTests",
		12: "DepthReplacing", 14: "DepthGreater", 15: "DepthLess",
		16: "DepthUnchanged", 17: "LocalSize",
	},
	opStorage: {
		0: "UniformConstant", 1: "Input", 2: "Uniform", 3: "Output",
		4: "Workgroup", 5: "CrossWorkgroup", 6: "Private", 7: "Function",
		8: "Generic", 9: "PushConstant", 10: "AtomicCounter", 11: "Image",
		12: "StorageBuffer",
	},
	opDecoration: {
		0: "RelaxedPrecision", 1: "SpecId", 2: "Block", 3: "BufferBlock",
		4: "RowMajor", 5: "ColMajor", 6: "ArrayStride", 7: "MatrixStride",
		11: "BuiltIn", 13: "NoPerspective", 14: "Flat", 16: "Centroid",
		17: "Sample", 18: "Invariant", 24: "NonWritable", 25: "NonReadable",
		30: "Location", 31: "Component", 32: "Index", 33: "Binding",
		34: "DescriptorSet", 35: "Offset",
	},
	opDim: {0: "1D", 1: "2D", 2: "3D", 3: "Cube", 4: "Rect", 5: "Buffer", 6: "SubpassData"},
	opFuncControl: {0: "None", 1: "Inline", 2: "DontInline", 4: "Pure", 8: "Const"},
}

var builtinNames = map[uint32]string{
	0: "Position", 1: "PointSize", 3: "CullDistance", 14: "FragCoord",
	15: "PointCoord", 16: "FrontFacing", 17: "SampleId", 19: "SampleMask",
	22: "FragDepth", 24: "NumWorkgroups", 26: "WorkgroupId",
	27: "LocalInvocationId", 28: "GlobalInvocationId",
	29: "LocalInvocationIndex", 42: "VertexIndex", 43: "InstanceIndex",
}

const decorationBuiltIn = 11

// Disassemble renders a SPIR-V module as text. The header is printed as
// comment lines followed by one instruction per line.
func Disassemble(words []uint32) (string, error) {
	if len(words) < headerWords {
		return "", errors.New(errors.PhaseSPIRV, errors.KindInvalidData).
			Value(len(words)).
			Detail("module has %d words, header needs %d", len(words), headerWords).
			Build()
	}
	if words[0] != Magic {
		return "", errors.New(errors.PhaseSPIRV, errors.KindInvalidData).
			Value(words[0]).
			Detail("invalid magic 0x%08x", words[0]).
			Build()
	}

	var b strings.Builder
	version := words[1]
	fmt.Fprintf(&b, "; SPIR-V\n")
	fmt.Fprintf(&b, "; Version: %d.%d\n", (version>>16)&0xff, (version>>8)&0xff)
	fmt.Fprintf(&b, "; Generator: 0x%08x\n", words[2])
	fmt.Fprintf(&b, "; Bound: %d\n", words[3])
	fmt.Fprintf(&b, "; Schema: %d\n", words[4])

	for off := headerWords; off < len(words); {
		count := int(words[off] >> 16)
		opcode := uint16(words[off] & 0xffff)
		if count == 0 || off+count > len(words) {
			return b.String(), errors.New(errors.PhaseSPIRV, errors.KindInvalidData).
				Value(off).
				Detail("invalid word count %d at word %d", count, off).
				Build()
		}
		writeInstr(&b, opcode, words[off+1:off+count])
		off += count
	}
	return b.String(), nil
}

func writeInstr(b *strings.Builder, opcode uint16, ops []uint32) {
	info, ok := instructions[opcode]
	if !ok {
		info = instr{name: "Op" + strconv.Itoa(int(opcode)), operands: []operand{opLiterals}}
	}

	var typeID string
	if info.typed && len(ops) > 0 {
		typeID = idName(ops[0])
		ops = ops[1:]
	}
	if info.result && len(ops) > 0 {
		fmt.Fprintf(b, "%12s = %s", idName(ops[0]), info.name)
		ops = ops[1:]
	} else {
		fmt.Fprintf(b, "%15s%s", "", info.name)
	}
	if typeID != "" {
		b.WriteByte(' ')
		b.WriteString(typeID)
	}

	for _, kind := range info.operands {
		if len(ops) == 0 {
			break
		}
		switch kind {
		case opIDs:
			for _, w := range ops {
				b.WriteByte(' ')
				b.WriteString(idName(w))
			}
			ops = nil
		case opLiterals:
			for _, w := range ops {
				b.WriteByte(' ')
				b.WriteString(strconv.FormatUint(uint64(w), 10))
			}
			ops = nil
		case opString:
			s, n := decodeString(ops)
			fmt.Fprintf(b, " %q", s)
			ops = ops[n:]
		case opID:
			b.WriteByte(' ')
			b.WriteString(idName(ops[0]))
			ops = ops[1:]
		case opLiteral:
			b.WriteByte(' ')
			b.WriteString(strconv.FormatUint(uint64(ops[0]), 10))
			ops = ops[1:]
		case opDecoration:
			dec := ops[0]
			b.WriteByte(' ')
			b.WriteString(enumName(kind, dec))
			ops = ops[1:]
			if dec == decorationBuiltIn && len(ops) > 0 {
				b.WriteByte(' ')
				b.WriteString(lookupName(builtinNames, ops[0]))
				ops = ops[1:]
			}
			for _, w := range ops {
				b.WriteByte(' ')
				b.WriteString(strconv.FormatUint(uint64(w), 10))
			}
			ops = nil
		default:
			b.WriteByte(' ')
			b.WriteString(enumName(kind, ops[0]))
			ops = ops[1:]
		}
	}
	b.WriteByte('\n')
}

// decodeString reads a nul-terminated UTF-8 literal packed little-endian into
// words and returns it with the number of words consumed.
func decodeString(ops []uint32) (string, int) {
	var sb strings.Builder
	for i, w := range ops {
		for shift := 0; shift < 32; shift += 8 {
			c := byte(w >> shift)
			if c == 0 {
				return sb.String(), i + 1
			}
			sb.WriteByte(c)
		}
	}
	return sb.String(), len(ops)
}

func idName(id uint32) string {
	return "%" + strconv.FormatUint(uint64(id), 10)
}

func enumName(kind operand, v uint32) string {
	return lookupName(enumNames[kind], v)
}

func lookupName(m map[uint32]string, v uint32) string {
	if s, ok := m[v]; ok {
		return s
	}
	return strconv.FormatUint(uint64(v), 10)
}
