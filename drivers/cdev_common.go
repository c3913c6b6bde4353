package drivers

const cdevDriverName = "gpiocdev"
const cdevConsumer = "xmasd"
const defaultCdevChip = "gpiochip0"

// CdevIO drives lines of a Linux GPIO character device, lines are chip
// offsets.
type CdevIO struct {
	Chip          string
	InvertOutputs bool

	lines   cdevLines
	isReady bool
}

func (cd *CdevIO) chipName() string {
	if len(cd.Chip) == 0 {
		return defaultCdevChip
	}
	return cd.Chip
}

func (cd *CdevIO) value(high bool) int {
	if high != cd.InvertOutputs {
		return 1
	}
	return 0
}

func (cd *CdevIO) String() string {
	return cdevDriverName
}

func (cd *CdevIO) IsReady() bool {
	return cd.isReady
}

func (cd *CdevIO) DefaultLines() []uint16 {
	return BcmLines
}
