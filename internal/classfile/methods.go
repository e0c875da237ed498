package classfile

// readMethods implements §4.1 step 10: each method is read-and-skipped.
// The graph never records method signatures, so only the bounded
// attribute lengths matter.
func (d *Decoder) readMethods(r *byteReader, cp *constantPool) error {
	count, err := r.u2()
	if err != nil {
		return err
	}
	for i := uint16(0); i < count; i++ {
		if err := r.skip(6); err != nil { // access_flags, name_index, descriptor_index
			return err
		}
		attrCount, err := r.u2()
		if err != nil {
			return err
		}
		for a := uint16(0); a < attrCount; a++ {
			if err := r.skip(2); err != nil { // attribute_name_index
				return err
			}
			attrLen, err := r.u4()
			if err != nil {
				return err
			}
			if err := r.skip(int(attrLen)); err != nil {
				return err
			}
		}
	}
	return nil
}
