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
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"
	_ "image/png"

	"github.com/capturekit/capturekit/pkg/util/merr"
)

const DefaultJPEGQuality = 90

// JPEGCodec decodes JPEG and PNG input and always encodes JPEG.
type JPEGCodec struct {
	Quality int
}

var _ Codec = JPEGCodec{}

func NewJPEGCodec(quality int) JPEGCodec {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return JPEGCodec{Quality: quality}
}

func (c JPEGCodec) Decode(data []byte) (*Photo, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, merr.WrapErrPhotoDecode(err)
	}
	return New(img), nil
}

func (c JPEGCodec) Encode(p *Photo) ([]byte, error) {
	if p == nil || p.Image == nil {
		return nil, merr.WrapErrParameterInvalidMsg("nothing to encode")
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, p.Image, &jpeg.Options{Quality: c.Quality}); err != nil {
		return nil, merr.WrapErrPhotoEncode(err)
	}
	return buf.Bytes(), nil
}

// Rotate returns a copy of p turned clockwise by degrees, a multiple of 90.
func (c JPEGCodec) Rotate(p *Photo, degrees int) (*Photo, error) {
	if p == nil || p.Image == nil {
		return nil, merr.WrapErrParameterInvalidMsg("nothing to rotate")
	}
	if degrees%90 != 0 {
		return nil, merr.WrapErrParameterInvalidMsg("rotation %d is not a multiple of 90", degrees)
	}
	turns := ((degrees/90)%4 + 4) % 4
	return &Photo{
		ID:       p.ID,
		Image:    rotateClockwise(p.Image, turns),
		Rotation: ((p.Rotation+degrees)%360 + 360) % 360,
	}, nil
}

func rotateClockwise(src image.Image, turns int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	if turns == 0 {
		return rgba
	}

	var dst *image.RGBA
	if turns%2 == 1 {
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch turns {
			case 1:
				dx, dy = h-1-y, x
			case 2:
				dx, dy = w-1-x, h-1-y
			case 3:
				dx, dy = y, w-1-x
			}
			si := rgba.PixOffset(x, y)
			di := dst.PixOffset(dx, dy)
			copy(dst.Pix[di:di+4], rgba.Pix[si:si+4])
		}
	}
	return dst
}
