package driver

// Extent3D is the size of an image in texels.
type Extent3D struct {
	Width, Height, Depth uint32
}

// ImageType mirrors VkImageType.
type ImageType int32

const (
	ImageType1D ImageType = 0
	ImageType2D ImageType = 1
	ImageType3D ImageType = 2
)

// ImageInfo describes an image. It is comparable and used as a cache key.
type ImageInfo struct {
	Type          ImageType
	Format        Format
	Extent        Extent3D
	Usage         ImageUsageFlags
	MipLevels     uint32
	ArrayElements uint32
	Samples       uint32
	Linear        bool
	CubeCompat    bool
}

// NewImageInfo2D returns the description of a single-level 2D image.
func NewImageInfo2D(format Format, width, height uint32, usage ImageUsageFlags) ImageInfo {
	return ImageInfo{
		Type:          ImageType2D,
		Format:        format,
		Extent:        Extent3D{Width: width, Height: height, Depth: 1},
		Usage:         usage,
		MipLevels:     1,
		ArrayElements: 1,
		Samples:       1,
	}
}

// Subresource covers every mip level and array layer of the image.
func (i ImageInfo) Subresource() ImageSubresource {
	return ImageSubresource{
		Aspect:          i.Format.Aspect(),
		MipLevelCount:   max(i.MipLevels, 1),
		ArrayLayerCount: max(i.ArrayElements, 1),
	}
}

// DefaultView describes a view over the whole image.
func (i ImageInfo) DefaultView() ImageViewInfo {
	vt := ImageViewType2D
	switch {
	case i.Type == ImageType1D:
		vt = ImageViewType1D
	case i.Type == ImageType3D:
		vt = ImageViewType3D
	case i.CubeCompat && i.ArrayElements == 6:
		vt = ImageViewTypeCube
	case i.ArrayElements > 1:
		vt = ImageViewType2DArray
	}
	return ImageViewInfo{Type: vt, Format: i.Format, Subresource: i.Subresource()}
}

// ImageSubresource is a range of mip levels and array layers.
type ImageSubresource struct {
	Aspect          ImageAspectFlags
	BaseMipLevel    uint32
	MipLevelCount   uint32
	BaseArrayLayer  uint32
	ArrayLayerCount uint32
}

// ImageViewType mirrors VkImageViewType.
type ImageViewType int32

const (
	ImageViewType1D      ImageViewType = 0
	ImageViewType2D      ImageViewType = 1
	ImageViewType3D      ImageViewType = 2
	ImageViewTypeCube    ImageViewType = 3
	ImageViewType2DArray ImageViewType = 5
)

// ImageViewInfo describes an image view. Views are cached per image by
// this value.
type ImageViewInfo struct {
	Type        ImageViewType
	Format      Format
	Subresource ImageSubresource
}

// BufferInfo describes a buffer. It is comparable and used as a cache key.
type BufferInfo struct {
	Size     uint64
	Usage    BufferUsageFlags
	Location MemoryLocation
}

// AccelerationStructureType mirrors VkAccelerationStructureTypeKHR.
type AccelerationStructureType int32

const (
	AccelerationStructureTopLevel    AccelerationStructureType = 0
	AccelerationStructureBottomLevel AccelerationStructureType = 1
)

// AccelerationStructureInfo describes an acceleration structure and the
// size of its backing buffer.
type AccelerationStructureInfo struct {
	Type AccelerationStructureType
	Size uint64
}

// DescriptorPoolInfo is the capacity of a descriptor pool. It is
// comparable and used as a cache key.
type DescriptorPoolInfo struct {
	MaxSets uint32
	Sizes   [descriptorTypeCount]uint32
}

// DescriptorPoolSize is one non-empty entry of a DescriptorPoolInfo.
type DescriptorPoolSize struct {
	Type  DescriptorType
	Count uint32
}

// Size returns the number of descriptors of type t the pool holds.
func (i DescriptorPoolInfo) Size(t DescriptorType) uint32 {
	return i.Sizes[t.slot()]
}

// Add grows the pool by n descriptors of type t.
func (i *DescriptorPoolInfo) Add(t DescriptorType, n uint32) {
	i.Sizes[t.slot()] += n
}

// PoolSizes lists the non-empty descriptor counts in type order.
func (i DescriptorPoolInfo) PoolSizes() []DescriptorPoolSize {
	var sizes []DescriptorPoolSize
	for slot, n := range i.Sizes {
		if n == 0 {
			continue
		}
		t := DescriptorType(slot)
		if slot == descriptorTypeCount-1 {
			t = DescriptorTypeAccelerationStructure
		}
		sizes = append(sizes, DescriptorPoolSize{Type: t, Count: n})
	}
	return sizes
}

// DescriptorSetLayoutBinding is one binding slot of a set layout.
type DescriptorSetLayoutBinding struct {
	Binding uint32
	Type    DescriptorType
	Count   uint32
	Stages  ShaderStageFlags
}

// DescriptorSetLayoutInfo describes a descriptor set layout.
type DescriptorSetLayoutInfo struct {
	Bindings []DescriptorSetLayoutBinding
}

// PoolInfo is the capacity of a pool able to hold exactly one set of this
// layout.
func (i DescriptorSetLayoutInfo) PoolInfo() DescriptorPoolInfo {
	info := DescriptorPoolInfo{MaxSets: 1}
	for _, b := range i.Bindings {
		info.Add(b.Type, max(b.Count, 1))
	}
	return info
}

// Binding returns the layout binding with the given number.
func (i DescriptorSetLayoutInfo) Binding(binding uint32) (DescriptorSetLayoutBinding, bool) {
	for _, b := range i.Bindings {
		if b.Binding == binding {
			return b, true
		}
	}
	return DescriptorSetLayoutBinding{}, false
}

// DescriptorWrite updates one array element of one binding in a set.
// Exactly one of ImageView, Buffer or AccelerationStructure is set,
// matching Type.
type DescriptorWrite struct {
	Binding      uint32
	ArrayElement uint32
	Type         DescriptorType

	ImageView   Handle
	ImageLayout ImageLayout

	Buffer Handle
	Offset uint64
	Range  uint64

	AccelerationStructure Handle
}

// BufferCopy is one region of a buffer to buffer copy.
type BufferCopy struct {
	SrcOffset, DstOffset, Size uint64
}

// Offset3D is a texel offset into an image.
type Offset3D struct {
	X, Y, Z int32
}

// BufferImageCopy is one region of a buffer to image copy.
type BufferImageCopy struct {
	BufferOffset      uint64
	BufferRowLength   uint32
	BufferImageHeight uint32
	Subresource       ImageSubresource
	Offset            Offset3D
	Extent            Extent3D
}
