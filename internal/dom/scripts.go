package dom

// stylesheetsScript returns every stylesheet link with its resolved href and
// raw media attribute, in document order.
const stylesheetsScript = `() => Array.prototype.map.call(
	document.querySelectorAll('link[rel="stylesheet"]'),
	(link) => ({ href: link.href, media: link.media })
)`

// matchSelectorsScript moves the markup hidden in <noscript> elements into
// the live DOM, then keeps every selector that matches a node or that the
// engine refuses to parse.
const matchSelectorsScript = `(selectors) => {
	Array.prototype.slice.call(document.getElementsByTagName('noscript')).forEach((ns) => {
		const wrapper = document.createElement('div');
		wrapper.innerHTML = ns.textContent;
		Array.prototype.slice.call(wrapper.children).forEach((child) => {
			ns.parentNode.insertBefore(child, ns);
		});
	});

	return {
		selectors: selectors.filter((selector) => {
			try {
				return document.querySelector(selector) !== null;
			} catch (e) {
				return true;
			}
		})
	};
}`
