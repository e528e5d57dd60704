// Package icon defines textures and the renderer collaborator that turns an
// application identity into an image.
//
// A Renderer produces an image of any size. Textures are always square RGBA
// images of the requested size; ToTexture scales and centers the rendered
// image, and Placeholder produces the tile shown when nothing can be
// rendered.
package icon
