package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsciiFrame_NoFields(t *testing.T) {
	fields := []AsciiFrameField{}

	actual, err := AsciiFrame(fields, 16, "bits", AsciiFrameUnitLayout_RightToLeft, 0)
	assert.NoError(t, err)

	assert.Equal(t, ""+
		`15            0
+-------------+
|  (unused)   |
+-------------+
 <- 16 bits -> 
`,
		actual)
}

func TestAsciiFrame_SingleField(t *testing.T) {
	fields := []AsciiFrameField{
		{
			Name:  "first field",
			Begin: 0,
			Width: 16,
		},
	}

	actual, err := AsciiFrame(fields, 16, "bits", AsciiFrameUnitLayout_RightToLeft, 0)
	assert.NoError(t, err)

	assert.Equal(t, ""+
		`15            0
+-------------+
| first field |
+-------------+
 <- 16 bits -> 
`,
		actual)
}

func TestAsciiFrame_SingleField_NotFittingFullFrame(t *testing.T) {
	fields := []AsciiFrameField{
		{
			Name:  "first field",
			Begin: 0,
			Width: 16,
		},
	}

	actual, err := AsciiFrame(fields, 32, "bits", AsciiFrameUnitLayout_RightToLeft, 0)
	assert.NoError(t, err)

	assert.Equal(t, ""+
		`31            15            0
+-------------+-------------+
|  (unused)   | first field |
+-------------+-------------+
 <- 16 bits -> <- 16 bits -> 
`,
		actual)
}

func TestAsciiFrame_SingleField_WithTextPadding(t *testing.T) {
	fields := []AsciiFrameField{
		{
			Name:  "first field",
			Begin: 0,
			Width: 16,
		},
	}

	actual, err := AsciiFrame(fields, 16, "bits", AsciiFrameUnitLayout_RightToLeft, 4)
	assert.NoError(t, err)

	assert.Equal(t, ""+
		`    15            0
    +-------------+
    | first field |
    +-------------+
     <- 16 bits -> 
`,
		actual)
}

func TestAsciiFrame_AVeryLooooooongField(t *testing.T) {
	fields := []AsciiFrameField{
		{
			Name:  "a very loooooooooong field",
			Begin: 0,
			Width: 16,
		},
	}

	actual, err := AsciiFrame(fields, 16, "bits", AsciiFrameUnitLayout_RightToLeft, 0)

	assert.NoError(t, err)

	assert.Equal(t, ""+
		`15                           0
+----------------------------+
| a very loooooooooong field |
+----------------------------+
 <-------- 16 bits ---------> 
`,
		actual)
}

func TestAsciiFrame_TwoConsecutiveFields(t *testing.T) {
	fields := []AsciiFrameField{
		{
			Name:  "first field",
			Begin: 0,
			Width: 16,
		},
		{
			Name:  "second field",
			Begin: 16,
			Width: 16,
		},
	}

	actual, err := AsciiFrame(fields, 32, "bits", AsciiFrameUnitLayout_RightToLeft, 0)
	assert.NoError(t, err)

	assert.Equal(t, ""+
		`31             15            0
+--------------+-------------+
| second field | first field |
+--------------+-------------+
 <- 16 bits --> <- 16 bits -> 
`,
		actual)
}

func TestAsciiFrame_TwoConsecutiveFields_LeftToRight(t *testing.T) {
	fields := []AsciiFrameField{
		{
			Name:  "first field",
			Begin: 0,
			Width: 16,
		},
		{
			Name:  "second field",
			Begin: 16,
			Width: 16,
		},
	}

	actual, err := AsciiFrame(fields, 32, "bits", AsciiFrameUnitLayout_LeftToRight, 0)
	assert.NoError(t, err)

	assert.Equal(t, ""+
		`0             16             31
+-------------+--------------+
| first field | second field |
+-------------+--------------+
 <- 16 bits -> <- 16 bits --> 
`,
		actual)
}

func TestAsciiFrame_TwoFieldsWithAGap(t *testing.T) {
	fields := []AsciiFrameField{
		{
			Name:  "first field",
			Begin: 0,
			Width: 16,
		},
		{
			Name:  "second field",
			Begin: 20,
			Width: 16,
		},
	}

	actual, err := AsciiFrame(fields, 36, "bits", AsciiFrameUnitLayout_LeftToRight, 0)
	assert.NoError(t, err)

	assert.Equal(t, ""+
		`0             16           20             35
+-------------+------------+--------------+
| first field |  (unused)  | second field |
+-------------+------------+--------------+
 <- 16 bits -> <- 4 bits -> <- 16 bits --> 
`,
		actual)
}

func TestAsciiFrame_OverlappingFields(t *testing.T) {
	fields := []AsciiFrameField{
		{
			Name:  "first field",
			Begin: 0,
			Width: 16,
		},
		{
			Name:  "second field",
			Begin: 8,
			Width: 16,
		},
	}

	_, err := AsciiFrame(fields, 32, "bits", AsciiFrameUnitLayout_RightToLeft, 0)
	assert.ErrorIs(t, err, ErrOverlappingFields)
}

func TestAsciiFrame_StatusRegister(t *testing.T) {
	fields := []AsciiFrameField{
		{Name: "mode", Begin: 0, Width: 5},
		{Name: "T", Begin: 5, Width: 1},
		{Name: "F", Begin: 6, Width: 1},
		{Name: "I", Begin: 7, Width: 1},
		{Name: "V", Begin: 28, Width: 1},
		{Name: "C", Begin: 29, Width: 1},
		{Name: "Z", Begin: 30, Width: 1},
		{Name: "N", Begin: 31, Width: 1},
	}

	actual, err := AsciiFrame(fields, 32, "b", AsciiFrameUnitLayout_RightToLeft, 0)
	assert.NoError(t, err)

	assert.Equal(t, ""+
		"31        30        29        28        27         7         6         5         4         0\n"+
		"+---------+---------+---------+---------+----------+---------+---------+---------+---------+\n"+
		"|    N    |    Z    |    C    |    V    | (unused) |    I    |    F    |    T    |  mode   |\n"+
		"+---------+---------+---------+---------+----------+---------+---------+---------+---------+\n"+
		" <- 1 b -> <- 1 b -> <- 1 b -> <- 1 b -> <- 20 b -> <- 1 b -> <- 1 b -> <- 1 b -> <- 5 b -> \n",
		actual)
}
