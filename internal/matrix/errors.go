// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package matrix

import "errors"

var errInvalidBagCount = errors.New("matrix: bag count must be positive")
