//go:build !linux

package netio

// SendFile copies count bytes from srcFD starting at offset to the
// connection through a user-space copy loop. Only Linux has a sendfile(2)
// path wired up here; every other platform, BSD and Darwin included, uses
// this copy loop.
func (c *Conn) SendFile(srcFD int, offset int64, count int64) (int64, error) {
	return c.sendFileViaCopy(srcFD, offset, count)
}
