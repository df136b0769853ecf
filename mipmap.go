package dds

import "math/bits"

// calculateMipMapCount returns the number of mipmap levels down to the
// first level whose smaller side is 1.
func calculateMipMapCount(width, height int) (int, error) {
	count := 1
	w, err := u32FromInt(width)
	if err != nil {
		return 0, err
	}

	h, err := u32FromInt(height)
	if err != nil {
		return 0, err
	}

	for w > 1 && h > 1 {
		count++
		w /= 2
		h /= 2
	}

	return count, nil
}

// mipDimension calculates the dimension of a mipmap level. There is no
// floor: levels past the end of a side are 0 wide and hold no texels.
func mipDimension(base, level int) int {
	return base >> level
}

// filledMips returns how many of mips levels have a non-zero area.
func filledMips(width, height, mips int) int {
	return min(mips, bits.Len(uint(max(0, min(width, height)))))
}

// blockCount returns the number of 4x4 blocks covering a dimension.
func blockCount(n int) int {
	return (n + 3) >> 2
}
