// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputSection(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "with header",
			raw:  macroHeader + "\nload\n\n" + outputHeader + "\nMain.value = 1;\n",
			want: "Main.value = 1;\n",
		},
		{
			name: "without header",
			raw:  "Main.value = 1;\n",
			want: "Main.value = 1;\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outputSection(tt.raw))
		})
	}
}
