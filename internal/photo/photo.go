// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package photo

import (
	"fmt"
	"image"

	"github.com/google/uuid"
)

// Photo is a decoded image. Its ID survives rotation and re-encoding.
type Photo struct {
	ID       string
	Image    image.Image
	Rotation int
}

func New(img image.Image) *Photo {
	return &Photo{
		ID:    uuid.NewString(),
		Image: img,
	}
}

func (p *Photo) Width() int {
	return p.Image.Bounds().Dx()
}

func (p *Photo) Height() int {
	return p.Image.Bounds().Dy()
}

// SizeBytes estimates the memory held by the decoded pixels, 4 bytes per pixel.
func (p *Photo) SizeBytes() int64 {
	if p == nil || p.Image == nil {
		return 0
	}
	return int64(p.Width()) * int64(p.Height()) * 4
}

func (p *Photo) String() string {
	return fmt.Sprintf("Photo{id=%s, %dx%d, rotation=%d}", p.ID, p.Width(), p.Height(), p.Rotation)
}

// Codec converts between encoded bytes and photos.
//
//go:generate mockery --name=Codec --with-expecter --output=../mocks --outpkg=mocks --filename=mock_codec.go
type Codec interface {
	Decode(data []byte) (*Photo, error)
	Encode(p *Photo) ([]byte, error)
	Rotate(p *Photo, degrees int) (*Photo, error)
}
